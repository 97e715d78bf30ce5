package payment

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"bistro/internal/models"
)

var (
	expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
	handlePattern = regexp.MustCompile(`^@[a-zA-Z0-9_-]+$`)
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// CardStrategy charges a credit or debit card
type CardStrategy struct {
	base
}

func (s *CardStrategy) Method() Method     { return Card }
func (s *CardStrategy) MethodName() string { return "Credit Card" }

func (s *CardStrategy) RequiredFields() []string {
	return []string{"card_number", "expiry", "cvv", "cardholder_name"}
}

func (s *CardStrategy) Currencies() []string { return []string{"USD", "EUR", "GBP", "CAD"} }

func (s *CardStrategy) Fees(amount decimal.Decimal) decimal.Decimal {
	return percentPlusFixed(amount)
}

func (s *CardStrategy) Validate(info Info) error {
	if err := requireFields(info, s.RequiredFields()); err != nil {
		return err
	}

	number := cardDigits(info["card_number"])
	if len(number) < 13 || len(number) > 19 || !isDigits(number) {
		return models.Invalid("card_number", "card number must be 13 to 19 digits")
	}
	if !luhn(number) {
		return models.Invalid("card_number", "card number failed checksum")
	}
	if !expiryPattern.MatchString(info["expiry"]) {
		return models.Invalid("expiry", "expiry must be MM/YY")
	}
	if !cvvPattern.MatchString(info["cvv"]) {
		return models.Invalid("cvv", "cvv must be 3 or 4 digits")
	}
	return nil
}

func (s *CardStrategy) Process(amount decimal.Decimal, info Info) Result {
	res := Result{
		Amount:    amount,
		Method:    s.MethodName(),
		Details:   map[string]string{"card": MaskCard(info["card_number"])},
		Timestamp: time.Now(),
	}
	if !s.src.Succeeds(s.rate) {
		res.Error = "Card declined"
		return res
	}
	res.Success = true
	res.TransactionID = s.transactionID("CC")
	res.Details["processing_fee"] = s.Fees(amount).StringFixed(2)
	return res
}

// PeerTransferStrategy pays through a peer-to-peer transfer app
type PeerTransferStrategy struct {
	base
}

func (s *PeerTransferStrategy) Method() Method           { return PeerTransfer }
func (s *PeerTransferStrategy) MethodName() string       { return "Peer Transfer" }
func (s *PeerTransferStrategy) RequiredFields() []string { return []string{"handle", "phone"} }
func (s *PeerTransferStrategy) Currencies() []string     { return []string{"USD"} }

func (s *PeerTransferStrategy) Fees(decimal.Decimal) decimal.Decimal { return decimal.Zero }

func (s *PeerTransferStrategy) Validate(info Info) error {
	if err := requireFields(info, s.RequiredFields()); err != nil {
		return err
	}
	if !handlePattern.MatchString(info["handle"]) {
		return models.Invalid("handle", "handle must look like @name")
	}
	phone := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, info["phone"])
	if len(phone) != 10 {
		return models.Invalid("phone", "phone must have 10 digits")
	}
	return nil
}

func (s *PeerTransferStrategy) Process(amount decimal.Decimal, info Info) Result {
	res := Result{
		Amount:    amount,
		Method:    s.MethodName(),
		Details:   map[string]string{"handle": info["handle"]},
		Timestamp: time.Now(),
	}
	if !s.src.Succeeds(s.rate) {
		res.Error = "Peer transfer failed"
		return res
	}
	res.Success = true
	res.TransactionID = s.transactionID("PT")
	res.Details["processing_fee"] = "0.00"
	return res
}

// WalletStrategy redirects to an online wallet account
type WalletStrategy struct {
	base
}

func (s *WalletStrategy) Method() Method           { return Wallet }
func (s *WalletStrategy) MethodName() string       { return "Wallet" }
func (s *WalletStrategy) RequiredFields() []string { return []string{"email"} }

func (s *WalletStrategy) Currencies() []string {
	return []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CHF", "SEK", "NOK", "DKK"}
}

func (s *WalletStrategy) Fees(amount decimal.Decimal) decimal.Decimal {
	return percentPlusFixed(amount)
}

func (s *WalletStrategy) Validate(info Info) error {
	if err := requireFields(info, s.RequiredFields()); err != nil {
		return err
	}
	if !emailPattern.MatchString(info["email"]) {
		return models.Invalid("email", "invalid email address")
	}
	return nil
}

func (s *WalletStrategy) Process(amount decimal.Decimal, info Info) Result {
	res := Result{
		Amount:    amount,
		Method:    s.MethodName(),
		Details:   map[string]string{"wallet_email": info["email"]},
		Timestamp: time.Now(),
	}
	if !s.src.Succeeds(s.rate) {
		res.Error = "Wallet transaction failed"
		return res
	}
	res.Success = true
	res.TransactionID = s.transactionID("WL")
	res.Details["processing_fee"] = s.Fees(amount).StringFixed(2)
	return res
}

func cardDigits(s string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// luhn reports whether a digit string passes the mod-10 checksum
func luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		n := int(number[i] - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

// MaskCard keeps only the last four digits
func MaskCard(number string) string {
	digits := cardDigits(number)
	if len(digits) < 4 {
		return "****"
	}
	return "****-****-****-" + digits[len(digits)-4:]
}
