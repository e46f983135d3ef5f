package server

import (
	"encoding/json"
	"sync"
)

const subscriberBuffer = 32

// hub fans events out to the websocket subscribers of each game.
// Slow subscribers miss events rather than block planning.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan []byte]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan []byte]struct{})}
}

func (h *hub) subscribe(gameID string) chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[gameID]
	if !ok {
		set = make(map[chan []byte]struct{})
		h.subs[gameID] = set
	}
	set[ch] = struct{}{}
	return ch
}

func (h *hub) unsubscribe(gameID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[gameID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subs, gameID)
	}
}

// publish returns the number of subscribers the event was delivered to.
func (h *hub) publish(gameID string, ev Event) (int, error) {
	msg, err := json.Marshal(ev)
	if err != nil {
		return 0, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	sent := 0
	for ch := range h.subs[gameID] {
		select {
		case ch <- msg:
			sent++
		default:
		}
	}
	return sent, nil
}

func (h *hub) count(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[gameID])
}
