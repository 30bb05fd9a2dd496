package events

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionCompleted is emitted once a ledger transaction is committed.
type TransactionCompleted struct {
	TransactionID string              `json:"transaction_id"`
	AccountID     string              `json:"account_id"`
	Sequence      int64               `json:"sequence"`
	Type          string              `json:"type"`
	Symbol        string              `json:"symbol,omitempty"`
	Quantity      decimal.NullDecimal `json:"quantity"`
	Price         decimal.NullDecimal `json:"price"`
	Amount        decimal.Decimal     `json:"amount"`
	CashBalance   decimal.Decimal     `json:"cash_balance"`
	Description   string              `json:"description"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event TransactionCompleted) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, TransactionCompleted) error { return nil }

// Fanout publishes every event to all of its publishers.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event TransactionCompleted) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Publisher = NoopPublisher{}
	_ Publisher = Fanout(nil)
)
