// Package payment implements the interchangeable payment backends and the
// processor that records every attempt.
package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/models"
	"bistro/internal/outcome"
)

// Info is the free-form field bag supplied by the customer
type Info map[string]string

// Method identifies a payment backend
type Method string

const (
	Card         Method = "card"
	PeerTransfer Method = "peer_transfer"
	Wallet       Method = "wallet"
)

var aliases = map[string]Method{
	"card":          Card,
	"credit_card":   Card,
	"peer_transfer": PeerTransfer,
	"venmo":         PeerTransfer,
	"wallet":        Wallet,
	"paypal":        Wallet,
}

// ParseMethod resolves a method id or legacy alias, case-insensitively
func ParseMethod(s string) (Method, bool) {
	m, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

// Result is the immutable outcome of one payment attempt
type Result struct {
	Success       bool              `json:"success"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	Method        string            `json:"payment_method"`
	Error         string            `json:"error,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Strategy is one payment backend
type Strategy interface {
	Method() Method
	MethodName() string
	RequiredFields() []string
	// Validate checks info without side effects
	Validate(info Info) error
	Process(amount decimal.Decimal, info Info) Result
	Fees(amount decimal.Decimal) decimal.Decimal
	Currencies() []string
}

// Rates holds the simulated success rate per backend
type Rates struct {
	Card         float64
	PeerTransfer float64
	Wallet       float64
}

// DefaultRates are used when no configuration is supplied
var DefaultRates = Rates{Card: 0.95, PeerTransfer: 0.97, Wallet: 0.98}

// NewStrategy builds the strategy for method. It fails for unknown methods.
func NewStrategy(method string, src outcome.Source, rates Rates) (Strategy, error) {
	m, ok := ParseMethod(method)
	if !ok {
		return nil, fmt.Errorf("unknown payment method: %q", method)
	}

	b := base{src: src}
	switch m {
	case Card:
		b.rate = rates.Card
		return &CardStrategy{base: b}, nil
	case PeerTransfer:
		b.rate = rates.PeerTransfer
		return &PeerTransferStrategy{base: b}, nil
	default:
		b.rate = rates.Wallet
		return &WalletStrategy{base: b}, nil
	}
}

type base struct {
	src  outcome.Source
	rate float64
}

func (b base) transactionID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, b.src.Suffix())
}

var (
	cardFeeRate  = decimal.RequireFromString("0.029")
	cardFeeFixed = decimal.RequireFromString("0.30")
)

func percentPlusFixed(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(cardFeeRate).Add(cardFeeFixed).Round(2)
}

func requireFields(info Info, fields []string) error {
	for _, f := range fields {
		if strings.TrimSpace(info[f]) == "" {
			return models.Invalid(f, "missing required field")
		}
	}
	return nil
}
