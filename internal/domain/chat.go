package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SamplingOptions are the generation parameters sent with every turn
type SamplingOptions struct {
	Temperature float64 `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `json:"max_tokens" validate:"gte=1,lte=131072"`
}

// NewSamplingOptions builds validated sampling options
func NewSamplingOptions(temperature float64, maxTokens int) (SamplingOptions, error) {
	opts := SamplingOptions{Temperature: temperature, MaxTokens: maxTokens}
	if err := validate.Struct(opts); err != nil {
		return SamplingOptions{}, &ValidationError{
			Field:   "options",
			Message: fmt.Sprintf("invalid sampling options: %v", err),
		}
	}
	return opts, nil
}

// ChatRequest is the body of a submit call
type ChatRequest struct {
	Content     string   `json:"content" validate:"max=32000"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int     `json:"max_tokens,omitempty" validate:"omitempty,gte=1,lte=131072"`
}

// Options merges the request overrides onto defaults
func (r ChatRequest) Options(defaults SamplingOptions) (SamplingOptions, error) {
	temperature := defaults.Temperature
	if r.Temperature != nil {
		temperature = *r.Temperature
	}
	maxTokens := defaults.MaxTokens
	if r.MaxTokens != nil {
		maxTokens = *r.MaxTokens
	}
	return NewSamplingOptions(temperature, maxTokens)
}

// SessionRename is the body of a rename call
type SessionRename struct {
	Name string `json:"name" validate:"required,max=255"`
}

// SessionSwitch is the body of a switch call
type SessionSwitch struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// ModelSelect is the body of a model selection call
type ModelSelect struct {
	Name string `json:"name" validate:"required,max=255"`
}
