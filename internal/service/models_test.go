package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func models(names ...string) []domain.Model {
	out := make([]domain.Model, len(names))
	for i, n := range names {
		out[i] = domain.Model{Name: n}
	}
	return out
}

func TestModelDirectory_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("selects first entry", func(t *testing.T) {
		tr := new(MockTransport)
		tr.On("ListModels", ctx).Return(models("llama3", "mistral"), nil)

		d := NewModelDirectory(tr, nil, "")
		got, err := d.Load(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{"llama3", "mistral"}, domain.ModelNames(got))
		assert.Equal(t, "llama3", d.Selected())
		assert.True(t, d.Enabled())
	})

	t.Run("prefers configured model", func(t *testing.T) {
		tr := new(MockTransport)
		tr.On("ListModels", ctx).Return(models("llama3", "mistral"), nil)

		d := NewModelDirectory(tr, nil, "mistral")
		_, err := d.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "mistral", d.Selected())
	})

	t.Run("empty list disables selection", func(t *testing.T) {
		tr := new(MockTransport)
		tr.On("ListModels", ctx).Return([]domain.Model{}, nil)

		d := NewModelDirectory(tr, nil, "llama3")
		_, err := d.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "", d.Selected())
		assert.False(t, d.Enabled())
	})

	t.Run("failure without previous list", func(t *testing.T) {
		tr := new(MockTransport)
		tr.On("ListModels", ctx).Return(nil, llm.RequestError("ollama", errors.New("dial tcp: connection refused")))

		d := NewModelDirectory(tr, nil, "")
		got, err := d.Load(ctx)
		require.Error(t, err)
		assert.Empty(t, got)
		assert.False(t, d.Enabled())
		assert.Equal(t, llm.KindConnectivity, llm.Classify(err).Kind)
	})
}

func TestModelDirectory_RefreshKeepsPreviousListOnFailure(t *testing.T) {
	ctx := context.Background()
	tr := new(MockTransport)
	tr.On("ListModels", ctx).Return(models("llama3", "mistral"), nil).Once()
	tr.On("ListModels", ctx).Return(nil, llm.StatusError("ollama", 500, []byte("boom"))).Once()

	d := NewModelDirectory(tr, nil, "")
	_, err := d.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, d.Select("mistral"))

	got, err := d.Refresh(ctx)
	require.Error(t, err)
	assert.Equal(t, []string{"llama3", "mistral"}, domain.ModelNames(got))
	assert.Equal(t, "mistral", d.Selected())
	tr.AssertExpectations(t)
}

func TestModelDirectory_RefreshSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		tr := new(MockTransport)
		tr.On("ListModels", ctx).Return(models("llama3", "mistral", "phi3"), nil)

		d := NewModelDirectory(tr, nil, "")
		_, err := d.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, d.Select("phi3"))

		_, err = d.Refresh(ctx)
		require.NoError(t, err)
		first := d.Selected()
		_, err = d.Refresh(ctx)
		require.NoError(t, err)

		assert.Equal(t, "phi3", first)
		assert.Equal(t, first, d.Selected())
	})

	t.Run("falls back when selection disappears", func(t *testing.T) {
		tr := new(MockTransport)
		tr.On("ListModels", ctx).Return(models("llama3", "mistral"), nil).Once()
		tr.On("ListModels", ctx).Return(models("qwen2", "llama3"), nil).Once()

		d := NewModelDirectory(tr, nil, "")
		_, err := d.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, d.Select("mistral"))

		_, err = d.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "qwen2", d.Selected())
	})

	t.Run("falls back to disabled when emptied", func(t *testing.T) {
		tr := new(MockTransport)
		tr.On("ListModels", ctx).Return(models("llama3"), nil).Once()
		tr.On("ListModels", ctx).Return([]domain.Model{}, nil).Once()

		d := NewModelDirectory(tr, nil, "")
		_, err := d.Load(ctx)
		require.NoError(t, err)
		_, err = d.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "", d.Selected())
	})
}

func TestModelDirectory_Select(t *testing.T) {
	ctx := context.Background()
	tr := new(MockTransport)
	tr.On("ListModels", ctx).Return(models("llama3"), nil)

	d := NewModelDirectory(tr, nil, "")
	_, err := d.Load(ctx)
	require.NoError(t, err)

	err = d.Select("gpt-9")
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
	assert.Equal(t, "llama3", d.Selected())
}

func TestModelDirectory_Cache(t *testing.T) {
	ctx := context.Background()

	t.Run("hit skips transport", func(t *testing.T) {
		tr := new(MockTransport)
		cache := new(MockModelCache)
		cache.On("Get", ctx, "mock").Return(models("cached"), nil)

		d := NewModelDirectory(tr, cache, "")
		got, err := d.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"cached"}, domain.ModelNames(got))
		tr.AssertNotCalled(t, "ListModels", mock.Anything)
	})

	t.Run("miss fills cache", func(t *testing.T) {
		tr := new(MockTransport)
		tr.On("ListModels", ctx).Return(models("llama3"), nil)
		cache := new(MockModelCache)
		cache.On("Get", ctx, "mock").Return(nil, nil)
		cache.On("Set", ctx, "mock", models("llama3")).Return(nil)

		d := NewModelDirectory(tr, cache, "")
		_, err := d.Load(ctx)
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("refresh bypasses cache", func(t *testing.T) {
		tr := new(MockTransport)
		tr.On("ListModels", ctx).Return(models("fresh"), nil)
		cache := new(MockModelCache)
		cache.On("Invalidate", ctx, "mock").Return(nil)
		cache.On("Set", ctx, "mock", models("fresh")).Return(nil)

		d := NewModelDirectory(tr, cache, "")
		got, err := d.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"fresh"}, domain.ModelNames(got))
		cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		cache.AssertExpectations(t)
	})

	t.Run("cache errors are not fatal", func(t *testing.T) {
		tr := new(MockTransport)
		tr.On("ListModels", ctx).Return(models("llama3"), nil)
		cache := new(MockModelCache)
		cache.On("Get", ctx, "mock").Return(nil, errors.New("redis down"))
		cache.On("Set", ctx, "mock", mock.Anything).Return(errors.New("redis down"))

		d := NewModelDirectory(tr, cache, "")
		_, err := d.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "llama3", d.Selected())
	})
}

func TestModelDirectory_ShowModel(t *testing.T) {
	ctx := context.Background()

	t.Run("details", func(t *testing.T) {
		tr := new(MockInspectingTransport)
		tr.On("ShowModel", ctx, "llama3").Return(&domain.ModelDetails{Name: "llama3", Family: "llama"}, nil)

		d := NewModelDirectory(tr, nil, "")
		details, err := d.ShowModel(ctx, "llama3")
		require.NoError(t, err)
		assert.Equal(t, "llama", details.Family)
	})

	t.Run("unknown model", func(t *testing.T) {
		tr := new(MockInspectingTransport)
		tr.On("ShowModel", ctx, "nope").Return(nil, llm.StatusError("ollama", 404, []byte(`{"error":"model 'nope' not found"}`)))

		d := NewModelDirectory(tr, nil, "")
		_, err := d.ShowModel(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrModelNotFound)
	})

	t.Run("server failure passes through", func(t *testing.T) {
		tr := new(MockInspectingTransport)
		tr.On("ShowModel", ctx, "llama3").Return(nil, llm.RequestError("ollama", errors.New("dial tcp: connection refused")))

		d := NewModelDirectory(tr, nil, "")
		_, err := d.ShowModel(ctx, "llama3")
		require.Error(t, err)
		assert.Equal(t, llm.KindConnectivity, llm.Classify(err).Kind)
	})

	t.Run("empty name", func(t *testing.T) {
		d := NewModelDirectory(new(MockInspectingTransport), nil, "")
		_, err := d.ShowModel(ctx, "")
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("transport cannot inspect", func(t *testing.T) {
		d := NewModelDirectory(new(MockTransport), nil, "")
		_, err := d.ShowModel(ctx, "llama3")
		assert.ErrorIs(t, err, domain.ErrUnsupported)
	})
}

func TestModelDirectory_RunningModels(t *testing.T) {
	ctx := context.Background()

	tr := new(MockInspectingTransport)
	tr.On("RunningModels", ctx).Return([]domain.RunningModel{{Name: "llama3", SizeVRAM: 42}}, nil)

	d := NewModelDirectory(tr, nil, "")
	running, err := d.RunningModels(ctx)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, int64(42), running[0].SizeVRAM)

	_, err = NewModelDirectory(new(MockTransport), nil, "").RunningModels(ctx)
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}
