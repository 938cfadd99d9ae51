package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/namedex/internal/domain"
)

// LoadSnapshot reads documents from a local JSON snapshot file (an array of
// the same document shape the ingestion collaborator writes to the store).
// Used for local development and deployments without a Redis knowledge store.
func LoadSnapshot(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var dtos []documentDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}

	docs := make([]domain.Document, 0, len(dtos))
	for _, dto := range dtos {
		doc, err := dto.toDomain()
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", path, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
