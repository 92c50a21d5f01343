package export

import (
	"encoding/json"
	"fmt"

	"github.com/ruspass-tech/ruspass/internal/document"
)

// WriteJSON marshals records with stable, indented formatting. Field
// values carry confidence and source; recognized raw text is never part
// of the record and so never part of the output.
func WriteJSON(records []*document.Record) ([]byte, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json export: %w", err)
	}
	return data, nil
}
