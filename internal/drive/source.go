package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/ingest"
)

// ErrNoInventoryFile is returned when the folder holds no CSV or XLSX file.
var ErrNoInventoryFile = errors.New("no inventory export in drive folder")

// Files is the part of the Drive API the snapshot source needs.
type Files interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
}

// SnapshotSource reads the inventory snapshot from the newest export in a
// Drive folder.
type SnapshotSource struct {
	files    Files
	folderID string
}

func NewSnapshotSource(files Files, folderID string) *SnapshotSource {
	return &SnapshotSource{files: files, folderID: folderID}
}

func (s *SnapshotSource) Snapshot(ctx context.Context) ([]domain.InventoryRecord, error) {
	file, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.files.DownloadFile(ctx, file.ID, &buf); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", file.Name, err)
	}

	src, err := ingest.AsCSV(file.Name, &buf)
	if err != nil {
		return nil, err
	}
	records, err := ingest.ParseInventory(src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file.Name, err)
	}
	return records, nil
}

// latest picks the most recently modified export. Drive returns RFC 3339
// timestamps, which compare correctly as strings.
func (s *SnapshotSource) latest(ctx context.Context) (*File, error) {
	files, err := s.files.ListFiles(ctx, s.folderID)
	if err != nil {
		return nil, err
	}

	var best *File
	for _, f := range files {
		if !isExport(f.Name) {
			continue
		}
		if best == nil || f.ModifiedTime > best.ModifiedTime {
			best = f
		}
	}
	if best == nil {
		return nil, ErrNoInventoryFile
	}
	return best, nil
}

func isExport(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}
