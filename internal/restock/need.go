package restock

// safetyBufferPercent is the share of predicted demand added as a buffer
// against forecast error.
const safetyBufferPercent = 20

// MaxUnits caps demand and stock quantities so the buffer and tier
// arithmetic stays inside int64.
const MaxUnits int64 = 1 << 40

// NeedAction says whether a product should be reordered.
type NeedAction string

const (
	ActionRestock   NeedAction = "RESTOCK"
	ActionNoRestock NeedAction = "NO_RESTOCK"
)

const reasonDemandExceedsStock = "Predicted demand exceeds current stock"

// Need is the output of CalculateNeed.
type Need struct {
	Action   NeedAction
	Required int64
	Quantity int64
	Reason   string
}

// CalculateNeed returns the restock quantity for a predicted demand and the
// stock on hand. Inputs are clamped to [0, MaxUnits].
func CalculateNeed(demand, stock int64) Need {
	demand, stock = clampUnits(demand), clampUnits(stock)

	required := demand + demand*safetyBufferPercent/100
	if stock >= required {
		return Need{Action: ActionNoRestock, Required: required}
	}

	return Need{
		Action:   ActionRestock,
		Required: required,
		Quantity: required - stock,
		Reason:   reasonDemandExceedsStock,
	}
}

func clampUnits(n int64) int64 {
	return min(max(n, 0), MaxUnits)
}
