package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Deposit    TransactionType = "DEPOSIT"
	Withdrawal TransactionType = "WITHDRAWAL"
	Buy        TransactionType = "BUY"
	Sell       TransactionType = "SELL"
)

func (t TransactionType) Valid() bool {
	switch t {
	case Deposit, Withdrawal, Buy, Sell:
		return true
	}
	return false
}

// IsTrade reports whether the type moves shares as well as cash.
func (t TransactionType) IsTrade() bool {
	return t == Buy || t == Sell
}

// ParseTransactionType accepts the type name in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

// Transaction is one immutable entry of an account's ledger. Amount is the
// signed cash impact: credits are positive, debits negative.
type Transaction struct {
	ID             string
	AccountID      string
	Sequence       int64
	Timestamp      time.Time
	Type           TransactionType
	Symbol         string
	Quantity       decimal.NullDecimal
	Price          decimal.NullDecimal
	Amount         decimal.Decimal
	BalanceAfter   decimal.Decimal
	IdempotencyKey string
}

func (t Transaction) Description() string {
	switch t.Type {
	case Deposit:
		return fmt.Sprintf("Deposit %s", t.Amount.StringFixed(2))
	case Withdrawal:
		return fmt.Sprintf("Withdraw %s", t.Amount.Neg().StringFixed(2))
	case Buy:
		return fmt.Sprintf("Buy %s %s @ %s", t.Quantity.Decimal.String(), t.Symbol, t.Price.Decimal.StringFixed(2))
	case Sell:
		return fmt.Sprintf("Sell %s %s @ %s", t.Quantity.Decimal.String(), t.Symbol, t.Price.Decimal.StringFixed(2))
	}
	return string(t.Type)
}

type TxOption func(*Transaction)

// IdempotencyKey tags the resulting transaction with a client supplied key.
func IdempotencyKey(key string) TxOption {
	return func(t *Transaction) {
		t.IdempotencyKey = key
	}
}
