package realtime

// Hub owns the set of connected clients grouped by event and fans messages
// out to one event room at a time.
type Hub struct {
	// rooms maps event id -> registered clients.
	rooms map[string]map[*Client]bool

	// Inbound messages from the redis subscriber.
	broadcast chan roomMessage

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client
}

type roomMessage struct {
	eventID string
	data    []byte
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan roomMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes registration and broadcast until the channels close. Meant
// to run on its own goroutine for the life of the process.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			room := h.rooms[client.eventID]
			if room == nil {
				room = make(map[*Client]bool)
				h.rooms[client.eventID] = room
			}
			room[client] = true

		case client := <-h.unregister:
			if room, ok := h.rooms[client.eventID]; ok {
				if _, ok := room[client]; ok {
					delete(room, client)
					close(client.send)
					_ = client.conn.Close()
					if len(room) == 0 {
						delete(h.rooms, client.eventID)
					}
				}
			}

		case msg := <-h.broadcast:
			for client := range h.rooms[msg.eventID] {
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer: drop it rather than stall the room.
					delete(h.rooms[msg.eventID], client)
					close(client.send)
					_ = client.conn.Close()
				}
			}
		}
	}
}

// Broadcast queues data for every client subscribed to the event.
func (h *Hub) Broadcast(eventID string, data []byte) {
	h.broadcast <- roomMessage{eventID: eventID, data: data}
}
