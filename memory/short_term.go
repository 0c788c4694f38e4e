package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/planmesh/core"
)

// TurnRecord is one completed request/answer pair in the session window.
type TurnRecord struct {
	Request     core.Content `json:"request"`
	FinalAnswer core.Answer  `json:"final_answer"`
	At          time.Time    `json:"at"`
}

// ShortTermStore keeps a bounded per-session history of completed turns.
// Both agents read it; only the control loop appends, after a turn finishes.
// It is safe for concurrent use across sessions.
type ShortTermStore struct {
	mu       sync.RWMutex
	window   int
	sessions map[string][]TurnRecord
}

// NewShortTermStore creates a store with the given retention window. A
// window of 0 disables retention entirely (History always returns nil).
func NewShortTermStore(window int) *ShortTermStore {
	return &ShortTermStore{
		window:   window,
		sessions: make(map[string][]TurnRecord),
	}
}

// Append records a completed turn, evicting the oldest entry once the window
// is full. The stored request is compacted: inline image payloads are
// replaced with a text placeholder so the window stays small.
func (s *ShortTermStore) Append(sessionID string, rec TurnRecord) {
	if s.window == 0 {
		return
	}
	rec.Request = CompactContent(rec.Request)
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.sessions[sessionID], rec)
	if len(history) > s.window {
		history = history[len(history)-s.window:]
	}
	s.sessions[sessionID] = history
}

// History returns a defensive copy of the session's window, oldest first.
func (s *ShortTermStore) History(sessionID string) []TurnRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]TurnRecord, len(history))
	copy(out, history)
	return out
}

// Len returns the number of retained turns for a session.
func (s *ShortTermStore) Len(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID])
}

// Clear drops the window for a session.
func (s *ShortTermStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// CompactContent replaces media parts with short text placeholders, keeping
// the window cheap to retain and to feed back into prompts.
func CompactContent(c core.Content) core.Content {
	compacted := core.Content{Role: c.Role}
	var texts []string
	images := 0
	for _, p := range c.Parts {
		switch part := p.(type) {
		case core.TextPart:
			if strings.TrimSpace(part.Text) != "" {
				texts = append(texts, part.Text)
			}
		case core.ImagePart:
			images++
		case core.DataPart:
			texts = append(texts, "[structured attachment]")
		}
	}
	text := strings.Join(texts, " ")
	if images > 0 {
		if text == "" {
			text = "[user attached an image]"
		} else {
			text += " [user attached an image]"
		}
	}
	compacted.Parts = []core.Part{core.TextPart{Text: text}}
	return compacted
}
