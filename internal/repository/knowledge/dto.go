package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/namedex/internal/domain"
)

// documentDTO is the JSON shape the ingestion collaborator writes.
type documentDTO struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	Body       string            `json:"body,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Keywords   []string          `json:"keywords,omitempty"`
	Vector     []float32         `json:"vector,omitempty"`
}

func parseDocument(data []byte) (domain.Document, error) {
	var dto documentDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return dto.toDomain()
}

func (d documentDTO) toDomain() (domain.Document, error) {
	if d.ID == "" {
		return domain.Document{}, fmt.Errorf("document id is required")
	}
	col, err := domain.ParseCollection(d.Collection)
	if err != nil {
		return domain.Document{}, fmt.Errorf("document %q: %w", d.ID, err)
	}

	body := d.Body
	if body == "" {
		body = renderBody(col, d.Fields)
	}
	if body == "" {
		return domain.Document{}, fmt.Errorf("document %q: empty body and no renderable fields", d.ID)
	}

	return domain.Document{
		ID:         d.ID,
		Collection: col,
		Body:       body,
		Fields:     d.Fields,
		Keywords:   d.Keywords,
		Vector:     d.Vector,
	}, nil
}

// renderBody builds the context excerpt from structured fields when the
// ingestion side did not pre-render one. Field order per collection mirrors
// the knowledge base schemas.
func renderBody(col domain.Collection, fields map[string]string) string {
	var order []string
	switch col {
	case domain.CollectionRules:
		order = []string{"category", "type", "rule_kr", "rule_en", "example"}
	case domain.CollectionDictionary:
		order = []string{"korean", "english", "abbreviation", "description"}
	case domain.CollectionQA:
		order = []string{"category", "question", "answer"}
	}

	parts := make([]string, 0, len(order))
	for _, name := range order {
		if v := fields[name]; v != "" {
			parts = append(parts, name+": "+v)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("[%s] %s", col, strings.Join(parts, " | "))
}
