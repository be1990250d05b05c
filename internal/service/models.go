package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/llm"
	"github.com/rs/zerolog/log"
)

// ModelCache stores model listings outside the process
type ModelCache interface {
	Get(ctx context.Context, provider string) ([]domain.Model, error)
	Set(ctx context.Context, provider string, models []domain.Model) error
	Invalidate(ctx context.Context, provider string) error
}

// ModelDirectory caches the models served by a transport and the current selection
type ModelDirectory struct {
	mu        sync.RWMutex
	transport llm.Transport
	cache     ModelCache
	preferred string

	models   []domain.Model
	selected string
}

// NewModelDirectory creates a directory. cache may be nil; preferred is selected
// whenever no earlier selection survives and the model is listed.
func NewModelDirectory(transport llm.Transport, cache ModelCache, preferred string) *ModelDirectory {
	return &ModelDirectory{
		transport: transport,
		cache:     cache,
		preferred: preferred,
	}
}

// Load returns the model list, from the cache when it holds one.
// On failure the previous list is kept and returned along with the error.
func (d *ModelDirectory) Load(ctx context.Context) ([]domain.Model, error) {
	if d.cache != nil {
		cached, err := d.cache.Get(ctx, d.transport.Name())
		if err != nil {
			log.Warn().Err(err).Str("provider", d.transport.Name()).Msg("failed to read model cache")
		}
		if len(cached) > 0 {
			d.apply(cached)
			return d.Models(), nil
		}
	}
	return d.fetch(ctx)
}

// Refresh reloads the list from the transport, bypassing the cache
func (d *ModelDirectory) Refresh(ctx context.Context) ([]domain.Model, error) {
	if d.cache != nil {
		if err := d.cache.Invalidate(ctx, d.transport.Name()); err != nil {
			log.Warn().Err(err).Str("provider", d.transport.Name()).Msg("failed to invalidate model cache")
		}
	}
	return d.fetch(ctx)
}

func (d *ModelDirectory) fetch(ctx context.Context) ([]domain.Model, error) {
	models, err := d.transport.ListModels(ctx)
	if err != nil {
		log.Error().Err(err).Str("provider", d.transport.Name()).Msg("failed to list models")
		return d.Models(), fmt.Errorf("failed to list models: %w", err)
	}

	if d.cache != nil && len(models) > 0 {
		if err := d.cache.Set(ctx, d.transport.Name(), models); err != nil {
			log.Warn().Err(err).Str("provider", d.transport.Name()).Msg("failed to write model cache")
		}
	}

	d.apply(models)
	log.Info().Int("models", len(models)).Str("selected", d.Selected()).Msg("Model directory loaded")
	return d.Models(), nil
}

// apply installs a new listing and reconciles the selection with it
func (d *ModelDirectory) apply(models []domain.Model) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.models = append([]domain.Model(nil), models...)

	switch {
	case d.selected != "" && d.has(d.selected):
	case d.preferred != "" && d.has(d.preferred):
		d.selected = d.preferred
	case len(d.models) > 0:
		d.selected = d.models[0].Name
	default:
		d.selected = ""
	}
}

// Select makes name the selected model
func (d *ModelDirectory) Select(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.has(name) {
		return fmt.Errorf("%w: %s", domain.ErrModelNotFound, name)
	}
	d.selected = name
	return nil
}

// Models returns a copy of the current listing
func (d *ModelDirectory) Models() []domain.Model {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.Model(nil), d.models...)
}

// Selected returns the selected model name, "" when disabled
func (d *ModelDirectory) Selected() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selected
}

// Enabled reports whether any model can be selected
func (d *ModelDirectory) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.models) > 0
}

// ShowModel asks the transport for the details of one installed model
func (d *ModelDirectory) ShowModel(ctx context.Context, name string) (*domain.ModelDetails, error) {
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "model name is required"}
	}
	inspector, err := d.inspector()
	if err != nil {
		return nil, err
	}

	details, err := inspector.ShowModel(ctx, name)
	if err != nil {
		if te := llm.Classify(err); te.Kind == llm.KindHTTPStatus && te.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, name)
		}
		return nil, err
	}
	return details, nil
}

// RunningModels lists the models the server currently holds in memory
func (d *ModelDirectory) RunningModels(ctx context.Context) ([]domain.RunningModel, error) {
	inspector, err := d.inspector()
	if err != nil {
		return nil, err
	}
	return inspector.RunningModels(ctx)
}

func (d *ModelDirectory) inspector() (llm.ModelInspector, error) {
	inspector, ok := d.transport.(llm.ModelInspector)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot describe models", domain.ErrUnsupported, d.transport.Name())
	}
	return inspector, nil
}

// Provider returns the name of the transport listing the models
func (d *ModelDirectory) Provider() string {
	return d.transport.Name()
}

func (d *ModelDirectory) has(name string) bool {
	for _, m := range d.models {
		if m.Name == name {
			return true
		}
	}
	return false
}
