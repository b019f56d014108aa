// internal/service/ingest_service.go
package service

import (
	"context"
	"fmt"
	"io"

	"github.com/andresuchdata/stockeasy/internal/cache"
	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/ingest"
	"github.com/andresuchdata/stockeasy/internal/repository"
	"github.com/andresuchdata/stockeasy/pkg/logger"
	"github.com/rs/zerolog"
)

// IngestService loads owner inventory and supplier catalogs from exports.
type IngestService struct {
	inventory repository.InventoryRepository
	catalog   repository.CatalogRepository
	cache     cache.RestockCache
	log       zerolog.Logger
}

func NewIngestService(inventory repository.InventoryRepository, catalog repository.CatalogRepository, c cache.RestockCache) *IngestService {
	if c == nil {
		c = cache.NewNoopRestockCache()
	}
	return &IngestService{inventory: inventory, catalog: catalog, cache: c, log: logger.With("ingest")}
}

// ImportInventory replaces the inventory snapshot with the rows of a CSV or
// XLSX export.
func (s *IngestService) ImportInventory(ctx context.Context, filename string, r io.Reader) (int, error) {
	src, err := ingest.AsCSV(filename, r)
	if err != nil {
		return 0, err
	}
	records, err := ingest.ParseInventory(src)
	if err != nil {
		return 0, fmt.Errorf("parse inventory %s: %w", filename, err)
	}
	if err := s.inventory.ReplaceInventory(ctx, records); err != nil {
		return 0, fmt.Errorf("store inventory: %w", err)
	}
	s.invalidate(ctx)
	s.log.Info().Str("file", filename).Int("rows", len(records)).Msg("Imported inventory")
	return len(records), nil
}

// ImportOffers replaces one supplier's catalog. An empty supplierID reads
// the supplier from each row and replaces every supplier found.
func (s *IngestService) ImportOffers(ctx context.Context, supplierID, filename string, r io.Reader) (int, error) {
	src, err := ingest.AsCSV(filename, r)
	if err != nil {
		return 0, err
	}
	offers, err := ingest.ParseSupplierOffers(src, supplierID)
	if err != nil {
		return 0, fmt.Errorf("parse offers %s: %w", filename, err)
	}

	bySupplier := make(map[string][]domain.SupplierOffer)
	if supplierID != "" {
		bySupplier[supplierID] = nil
	}
	for _, o := range offers {
		bySupplier[o.SupplierID] = append(bySupplier[o.SupplierID], o)
	}
	for supplier, list := range bySupplier {
		if err := s.catalog.ReplaceOffers(ctx, supplier, list); err != nil {
			return 0, fmt.Errorf("store offers for %s: %w", supplier, err)
		}
	}
	s.invalidate(ctx)
	s.log.Info().Str("file", filename).Int("rows", len(offers)).Int("suppliers", len(bySupplier)).Msg("Imported supplier offers")
	return len(offers), nil
}

// invalidate drops cached previews, which depend on inventory and catalog.
func (s *IngestService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate restock cache")
	}
}
