package backend

import "sync"

// hub fans bookmark events out to per-owner subscribers. Shared by the
// memory and gorm backends so both speak the same stream.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]*hubSub
}

type hubSub struct {
	owner  string
	ch     chan BookmarkEvent
	closer func()
}

func newHub() *hub {
	return &hub{subs: make(map[int]*hubSub)}
}

func (h *hub) subscribe(owner string) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	s := &hubSub{
		owner: owner,
		ch:    make(chan BookmarkEvent, 128),
	}
	s.closer = func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(s.ch)
		}
	}
	h.subs[id] = s
	return s
}

// publish delivers ev to every subscriber of owner. Slow consumers drop
// events; mirrors recover via Refresh so no guarantee is needed here.
func (h *hub) publish(owner string, ev BookmarkEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		if s.owner != owner {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}

func (s *hubSub) Events() <-chan BookmarkEvent { return s.ch }
func (s *hubSub) Close()                       { s.closer() }
