package event

import "time"

// Event is a single gathering with its own participants, playlist, polls and
// expenses. The access code is the only thing guests need to join.
type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AccessCode string    `json:"accessCode"`
	HostID     string    `json:"hostId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Participant is a person who joined an event. The id is store-assigned and
// distinct from any global user identity.
type Participant struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
