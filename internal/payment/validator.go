// Package payment executes payment intents for accepted restock decisions.
package payment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andresuchdata/stockeasy/internal/domain"
)

var (
	ErrNotWhitelisted        = errors.New("address not whitelisted")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrMonthlyBudgetExceeded = errors.New("monthly budget exceeded")
	ErrIntentExpired         = errors.New("payment intent expired")
)

// Validator is the last check before money moves: the recipient must be
// approved and the month's sent payments plus this one must fit the budget.
type Validator struct {
	approved      map[string]struct{}
	monthlyBudget domain.Money
}

// NewValidator compares addresses case-insensitively, as hex addresses are.
func NewValidator(approved []string, monthlyBudget domain.Money) *Validator {
	set := make(map[string]struct{}, len(approved))
	for _, a := range approved {
		set[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
	}
	return &Validator{approved: set, monthlyBudget: monthlyBudget}
}

func (v *Validator) Validate(address string, amount, usedThisMonth domain.Money) error {
	if _, ok := v.approved[strings.ToLower(strings.TrimSpace(address))]; !ok {
		return fmt.Errorf("%w: %s", ErrNotWhitelisted, address)
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount+usedThisMonth > v.monthlyBudget {
		return fmt.Errorf("%w: %s used + %s > %s", ErrMonthlyBudgetExceeded, usedThisMonth, amount, v.monthlyBudget)
	}
	return nil
}
