package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/andresuchdata/stockeasy/internal/domain"
)

const reportPrefix = "restock/reports/"

// ReportArchiver writes every cycle report to object storage as JSON, keyed
// by day so a bucket listing reads chronologically.
type ReportArchiver struct {
	store ObjectStorage
}

func NewReportArchiver(store ObjectStorage) *ReportArchiver {
	return &ReportArchiver{store: store}
}

// ReportKey is the object key for a report.
func ReportKey(report *domain.CycleReport) string {
	return fmt.Sprintf("%s%s/%s.json", reportPrefix, report.StartedAt.UTC().Format("2006/01/02"), report.CycleID)
}

func (a *ReportArchiver) Archive(ctx context.Context, report *domain.CycleReport) (string, error) {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report %s: %w", report.CycleID, err)
	}
	key := ReportKey(report)
	if err := a.store.PutObject(ctx, key, payload, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

func (a *ReportArchiver) Load(ctx context.Context, key string) (*domain.CycleReport, error) {
	payload, err := a.store.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	var report domain.CycleReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", key, err)
	}
	return &report, nil
}

// Keys lists archived report keys for a day prefix such as "2026/10", newest
// first.
func (a *ReportArchiver) Keys(ctx context.Context, day string) ([]string, error) {
	objects, err := a.store.ListObjects(ctx, reportPrefix+strings.TrimPrefix(day, "/"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		if strings.HasSuffix(o.Key, ".json") {
			keys = append(keys, o.Key)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}
