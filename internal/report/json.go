package report

import (
	"encoding/json"
	"io"

	"github.com/samijaber1/aegis-canary/internal/eval"
)

// WriteJSON writes the verdict as an indented JSON document
func WriteJSON(w io.Writer, v *eval.Verdict) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
