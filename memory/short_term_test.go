package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
)

func turn(request, answer string) TurnRecord {
	return TurnRecord{
		Request:     core.NewUserRequest(request),
		FinalAnswer: core.Answer{Text: answer},
	}
}

func TestShortTermWindowEvictsOldest(t *testing.T) {
	store := NewShortTermStore(2)
	store.Append("s1", turn("first", "a1"))
	store.Append("s1", turn("second", "a2"))
	store.Append("s1", turn("third", "a3"))

	history := store.History("s1")
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Request.Text())
	assert.Equal(t, "third", history[1].Request.Text())
}

func TestShortTermSessionIsolation(t *testing.T) {
	store := NewShortTermStore(5)
	store.Append("s1", turn("hello", "a"))
	store.Append("s2", turn("other", "b"))

	assert.Equal(t, 1, store.Len("s1"))
	assert.Equal(t, 1, store.Len("s2"))
	assert.Equal(t, "hello", store.History("s1")[0].Request.Text())
	assert.Nil(t, store.History("s3"))
}

func TestShortTermZeroWindowDisablesRetention(t *testing.T) {
	store := NewShortTermStore(0)
	store.Append("s1", turn("hello", "a"))

	assert.Nil(t, store.History("s1"))
	assert.Equal(t, 0, store.Len("s1"))
}

func TestShortTermHistoryIsDefensiveCopy(t *testing.T) {
	store := NewShortTermStore(5)
	store.Append("s1", turn("hello", "a"))

	history := store.History("s1")
	history[0].FinalAnswer.Text = "mutated"

	assert.Equal(t, "a", store.History("s1")[0].FinalAnswer.Text)
}

func TestShortTermClear(t *testing.T) {
	store := NewShortTermStore(5)
	store.Append("s1", turn("hello", "a"))
	store.Clear("s1")

	assert.Equal(t, 0, store.Len("s1"))
}

func TestCompactContentReplacesMedia(t *testing.T) {
	content := core.Content{Role: "user", Parts: []core.Part{
		core.TextPart{Text: "describe this"},
		core.ImagePart{Base64: "data:image/png;base64,QQ=="},
	}}

	compacted := CompactContent(content)

	assert.Equal(t, "describe this [user attached an image]", compacted.Text())
	assert.Empty(t, compacted.Images())

	onlyImage := CompactContent(core.Content{Parts: []core.Part{core.ImagePart{URI: "x"}}})
	assert.Equal(t, "[user attached an image]", onlyImage.Text())
}

func TestShortTermAppendCompactsRequest(t *testing.T) {
	store := NewShortTermStore(3)
	store.Append("s1", TurnRecord{
		Request:     core.NewUserRequest("look", core.ImagePart{Base64: "data:image/png;base64,QQ=="}),
		FinalAnswer: core.Answer{Text: "an image"},
	})

	history := store.History("s1")
	require.Len(t, history, 1)
	assert.Empty(t, history[0].Request.Images())
	assert.Contains(t, history[0].Request.Text(), "[user attached an image]")
	assert.False(t, history[0].At.IsZero())
}
