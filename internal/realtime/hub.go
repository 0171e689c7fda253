package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/courseguide-backend/internal/observability"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
)

const subscriberBuffer = 16

type subscriber struct {
	id     uint64
	userID string
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// Hub fans guide-request changes out to per-user subscribers. Each subscriber
// is served by its own goroutine so a slow callback never blocks Publish; when
// its buffer is full the event is dropped and logged.
type Hub struct {
	log *logger.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]*subscriber
	relay  Relay
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		log:  log.With("component", "ChangeFeedHub"),
		subs: make(map[string]map[uint64]*subscriber),
	}
}

// Subscribe registers fn for userID's events until the returned func is called.
func (h *Hub) Subscribe(userID string, fn func(Event)) (unsubscribe func()) {
	userID = strings.TrimSpace(userID)
	if userID == "" || fn == nil {
		return func() {}
	}

	h.mu.Lock()
	h.nextID++
	s := &subscriber{
		id:     h.nextID,
		userID: userID,
		events: make(chan Event, subscriberBuffer),
		done:   make(chan struct{}),
	}
	byUser, ok := h.subs[userID]
	if !ok {
		byUser = make(map[uint64]*subscriber)
		h.subs[userID] = byUser
	}
	byUser[s.id] = s
	h.mu.Unlock()

	go func() {
		for {
			select {
			case <-s.done:
				return
			case ev := <-s.events:
				select {
				case <-s.done:
					return
				default:
				}
				fn(ev)
			}
		}
	}()

	h.log.Debug("change feed subscribed", "user_id", userID, "subscriber", s.id)
	return func() { h.remove(s) }
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	if byUser, ok := h.subs[s.userID]; ok {
		delete(byUser, s.id)
		if len(byUser) == 0 {
			delete(h.subs, s.userID)
		}
	}
	h.mu.Unlock()
	s.stop()
	h.log.Debug("change feed unsubscribed", "user_id", s.userID, "subscriber", s.id)
}

// Subscribers reports how many subscriptions userID currently has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// AttachRelay routes Publish through r and starts delivering whatever r
// forwards. Without a relay Publish delivers locally.
func (h *Hub) AttachRelay(ctx context.Context, r Relay) error {
	if r == nil {
		return fmt.Errorf("nil relay")
	}
	if err := r.StartForwarder(ctx, h.Deliver); err != nil {
		return fmt.Errorf("start change feed forwarder: %w", err)
	}
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
	h.log.Info("change feed relay attached")
	return nil
}

func (h *Hub) Publish(ctx context.Context, ev Event) error {
	if ev.UserID == "" {
		return fmt.Errorf("change event without user id")
	}
	if m := observability.Current(); m != nil {
		m.IncFeedEvent(string(ev.Type))
	}

	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()
	if relay == nil {
		h.Deliver(ev)
		return nil
	}
	if err := relay.Publish(ctx, ev); err != nil {
		// The local instance still hears about its own writes.
		h.log.Warn("change feed relay publish failed; delivering locally", "error", err, "type", ev.Type)
		h.Deliver(ev)
		return err
	}
	return nil
}

// Deliver hands ev to local subscribers of ev.UserID without blocking.
func (h *Hub) Deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs[ev.UserID] {
		select {
		case s.events <- ev:
		default:
			h.log.Warn("dropping change event; subscriber buffer full", "user_id", ev.UserID, "subscriber", s.id)
			if m := observability.Current(); m != nil {
				m.IncFeedDropped()
			}
		}
	}
}
