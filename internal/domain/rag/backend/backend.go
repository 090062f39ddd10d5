package backend

import (
	"fmt"
	"strings"
)

// Backend selects the answer generation service.
type Backend string

// Generation backends.
const (
	// Local is a self-hosted model served by Ollama.
	Local  Backend = "local"
	Gemini Backend = "gemini"
	OpenAI Backend = "openai"
)

// All lists the supported backends.
var All = []Backend{Local, Gemini, OpenAI}

// IsValid checks if the backend is one of the supported values.
func (b Backend) IsValid() bool {
	return b == Local || b == Gemini || b == OpenAI
}

// Parse converts a wire value such as "_local" into a Backend.
// An empty value yields the empty Backend, meaning "use the default".
func Parse(s string) (Backend, error) {
	v := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "_"))
	if v == "" {
		return "", nil
	}
	b := Backend(v)
	if !b.IsValid() {
		return "", fmt.Errorf("unknown generation backend %q", s)
	}
	return b, nil
}
