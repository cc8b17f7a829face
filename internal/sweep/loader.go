package sweep

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// Dataset is one loaded sweep: the records plus an identity that changes
// whenever the underlying source changes, used as the analysis cache key.
type Dataset struct {
	ID      string
	Source  string
	Records []Record
}

// LoadFile reads a sweep export file: a JSON array of records. The dataset
// ID is derived from the file content so a re-export with the same path
// still invalidates downstream caches.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep file %s: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse sweep file %s: %w", path, err)
	}

	sum := sha256.Sum256(data)
	ds := &Dataset{
		ID:      fmt.Sprintf("file:%x", sum[:8]),
		Source:  path,
		Records: records,
	}

	log.Info().Str("path", path).Int("records", len(records)).Str("dataset", ds.ID).Msg("sweep file loaded")
	return ds, nil
}
