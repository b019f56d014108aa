package restock

import (
	"github.com/andresuchdata/stockeasy/internal/domain"
)

type reservationKey struct {
	product  string
	supplier string
}

// SupplierSelector picks the cheapest offer with enough unreserved stock. Its
// reservations live for one cycle only; the catalog itself is decremented
// when a payment is executed.
type SupplierSelector struct {
	allowed  map[string]struct{}
	reserved map[reservationKey]int64
}

func NewSupplierSelector(allowed []string) *SupplierSelector {
	set := make(map[string]struct{}, len(allowed))
	for _, supplier := range allowed {
		set[supplier] = struct{}{}
	}

	return &SupplierSelector{
		allowed:  set,
		reserved: make(map[reservationKey]int64),
	}
}

// Select returns the lowest unit cost offer from an allowed supplier whose
// free stock covers qty. Ties keep catalog order.
func (s *SupplierSelector) Select(productID string, qty int64, offers []domain.SupplierOffer) (domain.SupplierOffer, error) {
	var (
		best  domain.SupplierOffer
		found bool
	)
	for _, offer := range offers {
		if offer.ProductID != "" && offer.ProductID != productID {
			continue
		}
		if _, ok := s.allowed[offer.SupplierID]; !ok {
			continue
		}
		if s.Free(productID, offer) < qty {
			continue
		}
		if !found || offer.UnitCost < best.UnitCost {
			best = offer
			found = true
		}
	}

	if !found {
		return domain.SupplierOffer{}, ErrNoSupplierStock
	}
	return best, nil
}

// Free is the offer's available stock minus what this cycle already claimed.
func (s *SupplierSelector) Free(productID string, offer domain.SupplierOffer) int64 {
	return offer.AvailableStock - s.reserved[reservationKey{product: productID, supplier: offer.SupplierID}]
}

// Reserve claims qty of a supplier's stock for the rest of the cycle.
func (s *SupplierSelector) Reserve(productID, supplierID string, qty int64) {
	s.reserved[reservationKey{product: productID, supplier: supplierID}] += qty
}

// Reserved returns the quantity claimed so far for a product and supplier.
func (s *SupplierSelector) Reserved(productID, supplierID string) int64 {
	return s.reserved[reservationKey{product: productID, supplier: supplierID}]
}
