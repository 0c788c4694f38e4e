package memory

import (
	"strings"

	"github.com/hupe1980/planmesh/core"
)

// Relevance gates long-term memory traffic: not every request warrants a
// similarity search and not every answer is worth persisting. Both agents
// read through this policy; the control loop applies ShouldRemember after a
// completed turn.
type Relevance interface {
	// ShouldRecall reports whether the request looks personal or referential
	// enough to seed a long-term similarity query.
	ShouldRecall(request core.Content) bool

	// ShouldRemember reports whether the finished answer carries durable
	// information worth a long-term record.
	ShouldRemember(answer core.Answer) bool
}

// KeywordRelevance is the default policy: substring markers over lowercased
// text, mirroring how personal references and stated preferences tend to be
// phrased.
type KeywordRelevance struct {
	RecallMarkers   []string
	RememberMarkers []string
}

// NewKeywordRelevance returns the default marker sets.
func NewKeywordRelevance() KeywordRelevance {
	return KeywordRelevance{
		RecallMarkers:   []string{"remember", "last time", "previously", "earlier", "my ", "i like", "i prefer", "usual", "habit"},
		RememberMarkers: []string{"i like", "i prefer", "i usually", "you prefer", "your preference", "important to you"},
	}
}

// ShouldRecall implements the Relevance interface.
func (r KeywordRelevance) ShouldRecall(request core.Content) bool {
	text := strings.ToLower(request.Text())
	if len(text) < 10 {
		return false
	}
	return containsAny(text, r.RecallMarkers)
}

// ShouldRemember implements the Relevance interface.
func (r KeywordRelevance) ShouldRemember(answer core.Answer) bool {
	return containsAny(strings.ToLower(answer.Text), r.RememberMarkers)
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// AlwaysRelevant recalls and remembers unconditionally. Useful in tests and
// for deployments that prefer exhaustive memory.
type AlwaysRelevant struct{}

// ShouldRecall implements the Relevance interface.
func (AlwaysRelevant) ShouldRecall(core.Content) bool { return true }

// ShouldRemember implements the Relevance interface.
func (AlwaysRelevant) ShouldRemember(core.Answer) bool { return true }
