package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/stockeasy/internal/domain"
)

// FileSource reads the owner inventory snapshot from a local CSV file on
// every call, so edits are picked up by the next cycle.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Snapshot(ctx context.Context) ([]domain.InventoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open inventory %s: %w", s.path, err)
	}
	defer f.Close()

	records, err := ParseInventory(f)
	if err != nil {
		return nil, fmt.Errorf("parse inventory %s: %w", s.path, err)
	}
	return records, nil
}
