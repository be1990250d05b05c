package display

import (
	"testing"

	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_AppendAndView(t *testing.T) {
	f := NewFeed()
	f.Append(1, domain.RoleUser, "hi", true)
	f.Append(1, domain.RoleSystem, "Error: boom", true)
	f.Append(2, domain.RoleUser, "other", false)

	v := f.View(1)
	require.Len(t, v.Entries, 2)
	assert.Equal(t, domain.RoleSystem, v.Entries[1].Role)
	assert.True(t, v.Entries[0].Autoscroll)
	assert.Equal(t, uint64(2), v.Revision)

	assert.Len(t, f.View(2).Entries, 1)
}

func TestFeed_ResetDropsDisplayOnlyEntries(t *testing.T) {
	f := NewFeed()
	f.Append(1, domain.RoleUser, "hi", true)
	f.Append(1, domain.RoleSystem, "Error: boom", true)

	f.Reset(1, []domain.Message{{Role: domain.RoleUser, Content: "hi"}})

	v := f.View(1)
	require.Len(t, v.Entries, 1)
	assert.Equal(t, "hi", v.Entries[0].Content)
}

func TestFeed_Pending(t *testing.T) {
	f := NewFeed()
	f.Pending(3, true)
	assert.True(t, f.View(3).Pending)

	f.Pending(3, false)
	assert.False(t, f.View(3).Pending)
}

func TestFeed_UnknownSession(t *testing.T) {
	f := NewFeed()
	v := f.View(9)
	assert.Equal(t, int64(9), v.SessionID)
	assert.NotNil(t, v.Entries)
	assert.Empty(t, v.Entries)

	f.Append(9, domain.RoleUser, "x", false)
	f.Forget(9)
	assert.Empty(t, f.View(9).Entries)
}

func TestFeed_ImplementsRenderer(t *testing.T) {
	var _ domain.Renderer = NewFeed()
}
