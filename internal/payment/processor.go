package payment

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNoStrategy = errors.New("no payment strategy set")

const redacted = "***REDACTED***"

// Attempt is one history entry. Info is already sanitized.
type Attempt struct {
	Timestamp time.Time       `json:"timestamp"`
	Amount    decimal.Decimal `json:"amount"`
	Result    Result          `json:"result"`
	Info      Info            `json:"payment_info"`
}

// Processor runs payments through the active strategy and keeps an append-only history
type Processor struct {
	mu       sync.Mutex
	strategy Strategy
	history  []Attempt
}

func NewProcessor() *Processor {
	return &Processor{}
}

// SetStrategy replaces the active strategy
func (p *Processor) SetStrategy(s Strategy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strategy = s
}

func (p *Processor) Strategy() Strategy {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strategy
}

// Process validates info and charges amount with the active strategy.
// Without a strategy it returns a failure result and ErrNoStrategy.
func (p *Processor) Process(amount decimal.Decimal, info Info) (Result, error) {
	a, err := p.Charge(amount, info)
	return a.Result, err
}

// Charge is Process, returning the history entry it recorded
func (p *Processor) Charge(amount decimal.Decimal, info Info) (Attempt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.strategy == nil {
		return Attempt{Result: Result{
			Amount:    amount,
			Error:     "No payment strategy set",
			Timestamp: time.Now(),
		}}, ErrNoStrategy
	}

	var res Result
	if err := p.strategy.Validate(info); err != nil {
		res = Result{
			Amount:    amount,
			Method:    p.strategy.MethodName(),
			Error:     "Invalid payment information",
			Reason:    err.Error(),
			Timestamp: time.Now(),
		}
	} else {
		res = p.strategy.Process(amount, info)
	}

	a := Attempt{
		Timestamp: res.Timestamp,
		Amount:    amount,
		Result:    res,
		Info:      Sanitize(info),
	}
	p.history = append(p.history, a)
	return a, nil
}

// History returns a copy of every recorded attempt
func (p *Processor) History() []Attempt {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.history)
}

func (p *Processor) Successful() []Attempt {
	return p.filter(true)
}

func (p *Processor) Failed() []Attempt {
	return p.filter(false)
}

func (p *Processor) filter(success bool) []Attempt {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []Attempt
	for _, a := range p.history {
		if a.Result.Success == success {
			out = append(out, a)
		}
	}
	return out
}

// TotalProcessed sums the amounts of successful attempts
func (p *Processor) TotalProcessed() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Successful() {
		total = total.Add(a.Amount)
	}
	return total
}

// Fees returns the active strategy's fee for amount, zero without a strategy
func (p *Processor) Fees(amount decimal.Decimal) decimal.Decimal {
	if s := p.Strategy(); s != nil {
		return s.Fees(amount)
	}
	return decimal.Zero
}

func (p *Processor) RequiredFields() []string {
	if s := p.Strategy(); s != nil {
		return s.RequiredFields()
	}
	return nil
}

func (p *Processor) SupportsCurrency(code string) bool {
	s := p.Strategy()
	if s == nil {
		return false
	}
	return slices.Contains(s.Currencies(), strings.ToUpper(code))
}

// Sanitize masks card numbers and redacts secrets. Keys match case-insensitively.
func Sanitize(info Info) Info {
	out := make(Info, len(info))
	for k, v := range info {
		switch strings.ToLower(k) {
		case "card_number":
			out[k] = MaskCard(v)
		case "cvv", "password", "pin":
			out[k] = redacted
		default:
			out[k] = v
		}
	}
	return out
}
