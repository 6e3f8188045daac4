package expense

import "sort"

// SplitShares divides amountCents evenly across the share list. Remainder
// pennies go to the earliest participants in the (sorted) list so the result
// is deterministic. Pure function, no I/O.
func SplitShares(amountCents int64, participantIDs []string) map[string]int64 {
	out := make(map[string]int64, len(participantIDs))
	if len(participantIDs) == 0 || amountCents <= 0 {
		return out
	}

	ids := make([]string, len(participantIDs))
	copy(ids, participantIDs)
	sort.Strings(ids)

	n := int64(len(ids))
	base := amountCents / n
	rem := amountCents % n

	for i, id := range ids {
		share := base
		if int64(i) < rem {
			share++
		}
		out[id] = share
	}
	return out
}

// Balances folds a list of expenses into net positions. Every expense
// credits the payer with the full amount and debits each share participant
// with their portion; the sum over all participants is always zero.
func Balances(expenses []Expense) []Balance {
	net := make(map[string]int64)

	for _, ex := range expenses {
		shares := SplitShares(ex.AmountCents, ex.ShareWith)
		net[ex.PayerID] += ex.AmountCents
		for id, cents := range shares {
			net[id] -= cents
		}
	}

	out := make([]Balance, 0, len(net))
	for id, cents := range net {
		out = append(out, Balance{ParticipantID: id, NetCents: cents})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out
}

// Settlements suggests transfers that bring every balance to zero using
// greedy creditor/debtor matching. The suggestion count is at most
// len(balances)-1.
func Settlements(balances []Balance) []Settlement {
	type pos struct {
		id    string
		cents int64
	}

	var creditors, debtors []pos
	for _, b := range balances {
		switch {
		case b.NetCents > 0:
			creditors = append(creditors, pos{b.ParticipantID, b.NetCents})
		case b.NetCents < 0:
			debtors = append(debtors, pos{b.ParticipantID, -b.NetCents})
		}
	}

	// Largest first keeps the transfer list short.
	sort.Slice(creditors, func(i, j int) bool {
		if creditors[i].cents != creditors[j].cents {
			return creditors[i].cents > creditors[j].cents
		}
		return creditors[i].id < creditors[j].id
	})
	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].cents != debtors[j].cents {
			return debtors[i].cents > debtors[j].cents
		}
		return debtors[i].id < debtors[j].id
	})

	var out []Settlement
	ci, di := 0, 0
	for ci < len(creditors) && di < len(debtors) {
		amount := creditors[ci].cents
		if debtors[di].cents < amount {
			amount = debtors[di].cents
		}
		out = append(out, Settlement{
			FromID: debtors[di].id,
			ToID:   creditors[ci].id,
			Cents:  amount,
		})
		creditors[ci].cents -= amount
		debtors[di].cents -= amount
		if creditors[ci].cents == 0 {
			ci++
		}
		if debtors[di].cents == 0 {
			di++
		}
	}
	return out
}
