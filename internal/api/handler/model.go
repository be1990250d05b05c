package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/Rrens/ollama-chat/internal/api/response"
	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/llm"
	"github.com/Rrens/ollama-chat/internal/service"
	"github.com/go-chi/chi/v5"
)

// ModelHandler handles the model directory endpoints
type ModelHandler struct {
	directory *service.ModelDirectory
	host      string
}

// NewModelHandler creates a new model handler; host is shown in diagnostics
func NewModelHandler(directory *service.ModelDirectory, host string) *ModelHandler {
	return &ModelHandler{directory: directory, host: host}
}

type modelListing struct {
	Provider   string         `json:"provider"`
	Models     []domain.Model `json:"models"`
	Selected   string         `json:"selected"`
	Enabled    bool           `json:"enabled"`
	Diagnostic string         `json:"diagnostic,omitempty"`
}

func (h *ModelHandler) listing(diagnostic string) modelListing {
	models := h.directory.Models()
	if models == nil {
		models = []domain.Model{}
	}
	return modelListing{
		Provider:   h.directory.Provider(),
		Models:     models,
		Selected:   h.directory.Selected(),
		Enabled:    h.directory.Enabled(),
		Diagnostic: diagnostic,
	}
}

// List returns the directory, loading it when nothing is listed yet
func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.directory.Enabled() {
		response.OK(w, h.listing(""))
		return
	}
	if _, err := h.directory.Load(r.Context()); err != nil {
		response.JSON(w, http.StatusBadGateway, h.listing(llm.Diagnose(err, h.host)))
		return
	}
	response.OK(w, h.listing(""))
}

// Refresh reloads the directory from the server
func (h *ModelHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if _, err := h.directory.Refresh(r.Context()); err != nil {
		response.JSON(w, http.StatusBadGateway, h.listing(llm.Diagnose(err, h.host)))
		return
	}
	response.OK(w, h.listing(""))
}

// Select changes the selected model
func (h *ModelHandler) Select(w http.ResponseWriter, r *http.Request) {
	var input domain.ModelSelect
	if !decode(w, r, &input) {
		return
	}

	if err := h.directory.Select(input.Name); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, h.listing(""))
}

// Show returns the details of one installed model. Names containing "/" must
// be path-escaped.
func (h *ModelHandler) Show(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		response.BadRequest(w, "invalid model name")
		return
	}

	details, err := h.directory.ShowModel(r.Context(), name)
	if err != nil {
		h.writeInspectError(w, err)
		return
	}
	response.OK(w, details)
}

// Running lists the models currently loaded by the server
func (h *ModelHandler) Running(w http.ResponseWriter, r *http.Request) {
	running, err := h.directory.RunningModels(r.Context())
	if err != nil {
		h.writeInspectError(w, err)
		return
	}
	if running == nil {
		running = []domain.RunningModel{}
	}
	response.OK(w, running)
}

func (h *ModelHandler) writeInspectError(w http.ResponseWriter, err error) {
	var te *llm.TransportError
	if errors.As(err, &te) {
		response.Error(w, http.StatusBadGateway, llm.Diagnose(err, h.host))
		return
	}
	writeError(w, err)
}
