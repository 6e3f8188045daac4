package playlist

import "time"

// Item is one entry in an event's shared playlist. Canonical playlist order
// is AddedAt ascending (insertion order); the id breaks ties so the order is
// total and stable.
type Item struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	ChannelLabel string    `json:"channelLabel"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty"`
	AddedBy      string    `json:"addedBy"`
	AddedAt      time.Time `json:"addedAt"`
}
