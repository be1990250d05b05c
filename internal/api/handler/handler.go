package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Rrens/ollama-chat/internal/api/response"
	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// decode reads a JSON body into input and validates it, writing a 400 on failure
func decode(w http.ResponseWriter, r *http.Request, input any) bool {
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}

	if err := validate.Struct(input); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make(map[string]string)
			for _, e := range validationErrors {
				switch e.Tag() {
				case "required":
					fields[e.Field()] = "field is required"
				case "max":
					fields[e.Field()] = "must be at most " + e.Param()
				case "gt", "gte":
					fields[e.Field()] = "must be at least " + e.Param()
				case "lte":
					fields[e.Field()] = "must be at most " + e.Param()
				default:
					fields[e.Field()] = "validation failed on " + e.Tag()
				}
			}
			response.BadRequest(w, fields)
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}

// sessionID parses the {id} URL parameter
func sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid session ID")
		return 0, false
	}
	return id, true
}

// writeError maps core errors onto HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrTurnBusy):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.As(err, &ve):
		response.BadRequest(w, map[string]string{ve.Field: ve.Message})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrModelNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrLastSession):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnsupported):
		response.Error(w, http.StatusNotImplemented, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		response.InternalError(w, err.Error())
	}
}
