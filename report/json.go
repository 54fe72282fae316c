package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/pretty"

	"github.com/c360studio/atera/activity/validation"
)

// Document is the machine-readable result of one document.
type Document struct {
	Path     string               `json:"path"`
	Valid    bool                 `json:"valid"`
	Findings []validation.Finding `json:"findings"`
	Result   *validation.Result   `json:"result"`
}

// NewDocument pairs a result with the document it describes.
func NewDocument(path string, result *validation.Result) Document {
	return Document{
		Path:     path,
		Valid:    result.Valid(),
		Findings: Sort(result.Findings()),
		Result:   result,
	}
}

// JSON writes documents as an indented JSON array.
func JSON(w io.Writer, docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = w.Write(pretty.Pretty(data))
	return err
}
