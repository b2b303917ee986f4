package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

const (
	DefaultBuffer   = 64
	presenceTimeout = 2 * time.Second
)

// Event is one frame pushed to a subscriber.
type Event struct {
	Name string
	Data map[string]any
}

// Presence mirrors who is connected. *cache.RedisCache implements it.
type Presence interface {
	SetOnline(ctx context.Context, userID uint64) error
	SetOffline(ctx context.Context, userID uint64) error
}

// Subscriber is one live connection.
type Subscriber struct {
	events chan Event

	// guarded by Hub.mu
	userID   uint64
	channels map[string]struct{}
	closed   bool
}

// Events is the subscriber's outbound queue.
func (s *Subscriber) Events() <-chan Event { return s.events }

// Hub fans events out to channel subscribers. A subscriber whose buffer is
// full misses the event; publishers never block.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Subscriber]struct{}
	presence Presence
	log      *slog.Logger
}

func NewHub(log *slog.Logger, presence Presence) *Hub {
	return &Hub{
		channels: make(map[string]map[*Subscriber]struct{}),
		presence: presence,
		log:      log,
	}
}

func UserChannel(userID uint64) string { return "user:" + strconv.FormatUint(userID, 10) }

func RoomChannel(room string) string { return "room:" + room }

func (h *Hub) NewSubscriber(buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Subscriber{
		events:   make(chan Event, buffer),
		channels: make(map[string]struct{}),
	}
}

func (h *Hub) Join(sub *Subscriber, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinLocked(sub, channel)
}

func (h *Hub) joinLocked(sub *Subscriber, channel string) {
	if sub.closed {
		return
	}
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.channels[channel] = subs
	}
	subs[sub] = struct{}{}
	sub.channels[channel] = struct{}{}
}

func (h *Hub) Leave(sub *Subscriber, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(sub, channel)
}

func (h *Hub) leaveLocked(sub *Subscriber, channel string) {
	if subs, ok := h.channels[channel]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	delete(sub.channels, channel)
}

// Identify binds the subscriber to a user and joins the user's channel.
func (h *Hub) Identify(sub *Subscriber, userID uint64) {
	h.mu.Lock()
	if sub.userID != 0 && sub.userID != userID {
		h.leaveLocked(sub, UserChannel(sub.userID))
	}
	sub.userID = userID
	h.joinLocked(sub, UserChannel(userID))
	h.mu.Unlock()

	if h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()
		if err := h.presence.SetOnline(ctx, userID); err != nil {
			h.log.Warn("presence update failed", "user_id", userID, "err", err)
		}
	}
}

// UserID returns the identity bound by Identify, or 0.
func (h *Hub) UserID(sub *Subscriber) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return sub.userID
}

// Remove drops the subscriber from every channel and closes its queue.
func (h *Hub) Remove(sub *Subscriber) {
	h.mu.Lock()
	if sub.closed {
		h.mu.Unlock()
		return
	}
	for ch := range sub.channels {
		h.leaveLocked(sub, ch)
	}
	sub.closed = true
	close(sub.events)

	userID := sub.userID
	lastConn := userID != 0 && len(h.channels[UserChannel(userID)]) == 0
	h.mu.Unlock()

	if lastConn && h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()
		if err := h.presence.SetOffline(ctx, userID); err != nil {
			h.log.Warn("presence update failed", "user_id", userID, "err", err)
		}
	}
}

// Publish delivers to every subscriber of channel except skip (if set) and
// subscribers bound to exceptUserID (if non-zero). Returns how many
// subscribers got the event.
func (h *Hub) Publish(channel, event string, payload any, skip *Subscriber, exceptUserID uint64) int {
	data := toData(payload)

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.channels[channel] {
		if sub == skip || (exceptUserID != 0 && sub.userID == exceptUserID) {
			continue
		}
		if h.offer(sub, Event{Name: event, Data: data}) {
			delivered++
		}
	}
	return delivered
}

// Send queues an event for a single subscriber.
func (h *Hub) Send(sub *Subscriber, event string, payload any) bool {
	data := toData(payload)

	h.mu.RLock()
	defer h.mu.RUnlock()
	if sub.closed {
		return false
	}
	return h.offer(sub, Event{Name: event, Data: data})
}

// offer must run under h.mu (read) so Remove cannot close the queue mid-send.
func (h *Hub) offer(sub *Subscriber, ev Event) bool {
	select {
	case sub.events <- ev:
		return true
	default:
		h.log.Debug("subscriber buffer full, event dropped", "event", ev.Name, "user_id", sub.userID)
		return false
	}
}

func (h *Hub) PublishToUser(userID uint64, event string, payload any) {
	h.Publish(UserChannel(userID), event, payload, nil, 0)
}

func (h *Hub) PublishToRoom(room string, event string, payload any, exceptUserID uint64) {
	h.Publish(RoomChannel(room), event, payload, nil, exceptUserID)
}

// toData normalizes any JSON-encodable payload into the plain map shape
// structpb accepts.
func toData(payload any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return map[string]any{}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"value": v}
}
