package poll

import "time"

// Poll is a question with a fixed option list, one vote per participant.
type Poll struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	Question  string    `json:"question"`
	CreatedBy string    `json:"createdBy"`
	Closed    bool      `json:"closed"`
	CreatedAt time.Time `json:"createdAt"`
	Options   []Option  `json:"options"`
}

// Option carries its live vote count and whether the requesting participant
// picked it.
type Option struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Position int    `json:"position"`
	Votes    int    `json:"votes"`
	IsMine   bool   `json:"isMine,omitempty"`
}

// VoteResult is returned after a vote is cast or changed.
type VoteResult struct {
	PollID   string `json:"pollId"`
	OptionID string `json:"optionId"`
	Votes    int    `json:"votes"`
}
