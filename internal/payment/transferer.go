package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transferer moves funds to a supplier address and returns a transaction hash.
type Transferer interface {
	Transfer(ctx context.Context, to string, amount decimal.Decimal) (string, error)
}

// DemoTransferer never touches a chain. It returns a synthetic hash so the
// rest of the flow can be exercised end to end.
type DemoTransferer struct{}

func (DemoTransferer) Transfer(ctx context.Context, to string, amount decimal.Decimal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}
