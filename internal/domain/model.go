package domain

import "time"

// Model is one entry of the inference server's model directory
type Model struct {
	Name          string    `json:"name"`
	Size          int64     `json:"size,omitempty"`
	Family        string    `json:"family,omitempty"`
	ParameterSize string    `json:"parameter_size,omitempty"`
	Quantization  string    `json:"quantization,omitempty"`
	ModifiedAt    time.Time `json:"modified_at,omitempty"`
}

// ModelNames returns the names of models in order
func ModelNames(models []Model) []string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}
	return names
}

// ModelDetails is what the server reports about one installed model
type ModelDetails struct {
	Name          string    `json:"name"`
	Format        string    `json:"format,omitempty"`
	Family        string    `json:"family,omitempty"`
	Families      []string  `json:"families,omitempty"`
	ParameterSize string    `json:"parameter_size,omitempty"`
	Quantization  string    `json:"quantization,omitempty"`
	License       string    `json:"license,omitempty"`
	Modelfile     string    `json:"modelfile,omitempty"`
	Parameters    string    `json:"parameters,omitempty"`
	Template      string    `json:"template,omitempty"`
	System        string    `json:"system,omitempty"`
	ModifiedAt    time.Time `json:"modified_at,omitempty"`
}

// RunningModel is a model currently loaded into server memory
type RunningModel struct {
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	SizeVRAM      int64     `json:"size_vram"`
	Family        string    `json:"family,omitempty"`
	ParameterSize string    `json:"parameter_size,omitempty"`
	Quantization  string    `json:"quantization,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}
