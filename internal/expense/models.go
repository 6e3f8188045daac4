package expense

import "time"

// Expense is money one participant paid on behalf of a share group. Amounts
// are integer cents; the split never invents or loses a penny.
type Expense struct {
	ID          string    `json:"id"`
	EventID     string    `json:"eventId"`
	PayerID     string    `json:"payerId"`
	Label       string    `json:"label"`
	AmountCents int64     `json:"amountCents"`
	ShareWith   []string  `json:"shareWith"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Balance is a participant's net position: positive means the group owes
// them, negative means they owe the group.
type Balance struct {
	ParticipantID string `json:"participantId"`
	NetCents      int64  `json:"netCents"`
}

// Settlement is one suggested transfer that moves the group toward zero.
type Settlement struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	Cents  int64  `json:"cents"`
}
