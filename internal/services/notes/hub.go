package notes

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"quicknotes/internal/logger"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Subscriber represents a connection that can receive note events
type Subscriber struct {
	UserID bson.ObjectID
	Ch     chan NoteEvent
	Done   chan struct{}
}

// connInfo holds connection metadata
type connInfo struct {
	ID          ulid.ULID
	ConnectedAt time.Time
	Subscriber  *Subscriber
}

// userSubs holds subscribers for a specific user
type userSubs struct {
	mu sync.RWMutex
	m  map[ulid.ULID]connInfo
}

// Hub fans note events out to the live connections of every recipient the
// event names. Unlike a plain per-owner feed, shared notes reach the users
// and group members they are shared with.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[bson.ObjectID]*userSubs
	connIndex   map[ulid.ULID]bson.ObjectID
	bufferSize  int
	dropped     uint64
}

// NewHub creates a new event hub with configurable per-connection buffer size
func NewHub(bufferSize int) *Hub {
	return &Hub{
		subscribers: make(map[bson.ObjectID]*userSubs),
		connIndex:   make(map[ulid.ULID]bson.ObjectID),
		bufferSize:  bufferSize,
	}
}

// Subscribe adds a new subscriber for userID and returns it with a cancel
// function that detaches the connection.
func (h *Hub) Subscribe(connID ulid.ULID, userID bson.ObjectID) (*Subscriber, func()) {
	h.mu.Lock()
	bucket, exists := h.subscribers[userID]
	if !exists {
		bucket = &userSubs{m: make(map[ulid.ULID]connInfo)}
		h.subscribers[userID] = bucket
	}
	h.connIndex[connID] = userID
	h.mu.Unlock()

	sub := &Subscriber{
		UserID: userID,
		Ch:     make(chan NoteEvent, h.bufferSize),
		Done:   make(chan struct{}),
	}

	bucket.mu.Lock()
	bucket.m[connID] = connInfo{
		ID:          connID,
		ConnectedAt: time.Now(),
		Subscriber:  sub,
	}
	bucket.mu.Unlock()

	return sub, func() { h.Unsubscribe(connID) }
}

// Unsubscribe removes a subscriber from the hub
func (h *Hub) Unsubscribe(connID ulid.ULID) {
	h.mu.RLock()
	uid, ok := h.connIndex[connID]
	bucket := h.subscribers[uid]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if bucket == nil {
		h.mu.Lock()
		delete(h.connIndex, connID)
		h.mu.Unlock()
		return
	}

	bucket.mu.Lock()
	info, exists := bucket.m[connID]
	if exists {
		delete(bucket.m, connID)
	}
	empty := len(bucket.m) == 0
	bucket.mu.Unlock()

	if exists {
		close(info.Subscriber.Ch)
		close(info.Subscriber.Done)
	}

	h.mu.Lock()
	delete(h.connIndex, connID)
	if empty {
		delete(h.subscribers, uid)
	}
	h.mu.Unlock()
}

// Broadcast delivers ev to every subscriber of every recipient.
// Slow consumers never block the caller; their events are dropped.
func (h *Hub) Broadcast(_ context.Context, ev NoteEvent) {
	log := logger.L()
	if log != nil && log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("broadcasting event", "event_type", ev.Type, "recipients", len(ev.Recipients))
	}

	for _, uid := range ev.Recipients {
		bucket := h.bucket(uid)
		if bucket == nil {
			continue
		}

		bucket.mu.RLock()
		for _, info := range bucket.m {
			select {
			case info.Subscriber.Ch <- ev:
			default:
				atomic.AddUint64(&h.dropped, 1)
				if log != nil {
					log.Warn("outbox full, dropping event", "conn_id", info.ID.String(), "user_id", uid.Hex(), "event_type", ev.Type)
				}
			}
		}
		bucket.mu.RUnlock()
	}
}

// SubscriberCount returns the current number of live connections.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, bucket := range h.subscribers {
		bucket.mu.RLock()
		total += len(bucket.m)
		bucket.mu.RUnlock()
	}
	return total
}

// Stats returns current counters for observability / tests.
func (h *Hub) Stats() (subscribers int, dropped uint64) {
	return h.SubscriberCount(), atomic.LoadUint64(&h.dropped)
}

func (h *Hub) bucket(uid bson.ObjectID) *userSubs {
	h.mu.RLock()
	b := h.subscribers[uid]
	h.mu.RUnlock()
	return b
}
