// Package notifier delivers seat state transitions to every client
// currently watching a show over WebSocket.  It is pure topic-scoped
// fan-out: the hub holds no booking logic and is never a source of
// truth for availability – clients reconcile against the status query
// on connect.  Delivery is best effort; a client that connects after
// an event has missed it.
package notifier

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// EventType labels a seat state transition.
type EventType string

const (
	EventSeatsLocked   EventType = "seats-locked"
	EventSeatsUnlocked EventType = "seats-unlocked"
	EventSeatsBooked   EventType = "seats-booked"
)

// Event is the message pushed to all members of a show topic.
type Event struct {
	Type        EventType `json:"type"`
	ShowID      uint64    `json:"showId"`
	SeatNumbers []int     `json:"seatNumbers"`
	UserID      uint64    `json:"userId"`
	Timestamp   time.Time `json:"timestamp"`
}

// Config tunes the hub's connection handling.  Zero values select the
// defaults.
type Config struct {
	WriteTimeout    time.Duration // per-message write deadline
	PongTimeout     time.Duration // read deadline extended on each pong
	MaxMessageBytes int64         // read limit for control messages
	SendBuffer      int           // per-client outbound queue length
}

func (c Config) withDefaults() Config {
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = 512
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 32
	}
	return c
}

// Hub manages WebSocket clients grouped by the show they are watching.
// A client may watch several shows at once; membership changes and
// disconnects go through the hub so the registry stays consistent.
// Construct with NewHub and start Run in its own goroutine; the hub is
// injected where broadcasts originate rather than reached for as a
// global.
type Hub struct {
	cfg       Config
	mu        sync.RWMutex
	shows     map[uint64]map[*Client]bool
	broadcast chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a Hub with the given configuration.
func NewHub(cfg Config) *Hub {
	return &Hub{
		cfg:       cfg.withDefaults(),
		shows:     make(map[uint64]map[*Client]bool),
		broadcast: make(chan Event, 256),
		done:      make(chan struct{}),
	}
}

// Run consumes the broadcast queue and fans events out to topic
// members.  It returns when Close is called.
func (h *Hub) Run() {
	for {
		select {
		case ev := <-h.broadcast:
			h.deliver(ev)
		case <-h.done:
			return
		}
	}
}

// Close stops Run and disconnects all clients.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		seen := make(map[*Client]bool)
		for _, members := range h.shows {
			for c := range members {
				if !seen[c] {
					seen[c] = true
					c.closeSend()
				}
			}
		}
		h.shows = make(map[uint64]map[*Client]bool)
	})
}

// Join subscribes the client to a show topic.
func (h *Hub) Join(c *Client, showID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.shows[showID] == nil {
		h.shows[showID] = make(map[*Client]bool)
	}
	h.shows[showID][c] = true
	c.shows[showID] = true
}

// Leave unsubscribes the client from a show topic.
func (h *Hub) Leave(c *Client, showID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c, showID)
	delete(c.shows, showID)
}

// forget removes the client from every topic it joined.  Called when
// the connection goes away.
func (h *Hub) forget(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for showID := range c.shows {
		h.dropLocked(c, showID)
	}
	c.shows = make(map[uint64]bool)
	c.closeSend()
}

func (h *Hub) dropLocked(c *Client, showID uint64) {
	if members, ok := h.shows[showID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.shows, showID)
		}
	}
}

// WatcherCount returns the number of clients watching a show.
func (h *Hub) WatcherCount(showID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.shows[showID])
}

// SeatsLocked implements reservation.Notifier.
func (h *Hub) SeatsLocked(showID uint64, seats []int, userID uint64) {
	h.publish(Event{Type: EventSeatsLocked, ShowID: showID, SeatNumbers: seats, UserID: userID})
}

// SeatsUnlocked implements reservation.Notifier.
func (h *Hub) SeatsUnlocked(showID uint64, seats []int, userID uint64) {
	h.publish(Event{Type: EventSeatsUnlocked, ShowID: showID, SeatNumbers: seats, UserID: userID})
}

// SeatsBooked implements reservation.Notifier.
func (h *Hub) SeatsBooked(showID uint64, seats []int, userID uint64) {
	h.publish(Event{Type: EventSeatsBooked, ShowID: showID, SeatNumbers: seats, UserID: userID})
}

func (h *Hub) publish(ev Event) {
	ev.Timestamp = time.Now().UTC()
	select {
	case h.broadcast <- ev:
	case <-h.done:
	default:
		// Queue full: drop rather than block the request path.
		// Clients recover from missed events via the status query.
		log.Printf("notifier: broadcast queue full, dropping %s for show %d", ev.Type, ev.ShowID)
	}
}

func (h *Hub) deliver(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("notifier: marshal event failed: %v", err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.shows[ev.ShowID]))
	for c := range h.shows[ev.ShowID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		select {
		case c.send <- data:
		default:
			// Slow consumer: evict instead of backing up the hub.
			log.Printf("notifier: client %s too slow, dropping connection", c.id)
			h.forget(c)
		}
	}
}
