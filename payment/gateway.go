// Package payment talks to the Razorpay-compatible payment gateway and
// verifies the signatures it produces.
package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// IntentRequest asks the gateway for a payment intent ("order" in Razorpay terms)
type IntentRequest struct {
	Amount   int64             `json:"amount"` // minor units
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Intent is the gateway side of an order
type Intent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway creates payment intents
type Gateway interface {
	CreateOrder(ctx context.Context, req IntentRequest) (*Intent, error)
}

// GatewayError is a non-2xx answer from the gateway
type GatewayError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("payment gateway returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("payment gateway returned status %d: %s (%s)", e.StatusCode, e.Description, e.Code)
}

var hundred = decimal.NewFromInt(100)

// MinorUnits converts an amount to the nearest integer minor currency unit
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
