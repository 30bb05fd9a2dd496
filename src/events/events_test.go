package events_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"tradeledger/src/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPublisher struct {
	calls int
	err   error
}

func (p *countingPublisher) Publish(context.Context, events.TransactionCompleted) error {
	p.calls++
	return p.err
}

func event() events.TransactionCompleted {
	return events.TransactionCompleted{
		TransactionID: "tx-1",
		AccountID:     "acc-1",
		Sequence:      1,
		Type:          "DEPOSIT",
		Amount:        decimal.NewFromInt(100),
		CashBalance:   decimal.NewFromInt(100),
		Description:   "Deposit 100.00",
		OccurredAt:    time.Now().UTC(),
	}
}

func TestFanout(t *testing.T) {
	ctx := context.Background()

	t.Run("should publish to every publisher", func(t *testing.T) {
		a, b := &countingPublisher{}, &countingPublisher{}
		require.NoError(t, events.Fanout{a, nil, b}.Publish(ctx, event()))
		assert.Equal(t, 1, a.calls)
		assert.Equal(t, 1, b.calls)
	})

	t.Run("should keep going after a failure", func(t *testing.T) {
		boom := errors.New("broker down")
		a, b := &countingPublisher{err: boom}, &countingPublisher{}
		err := events.Fanout{a, b}.Publish(ctx, event())
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, b.calls)
	})

	t.Run("should accept events without publishers", func(t *testing.T) {
		assert.NoError(t, events.Fanout{}.Publish(ctx, event()))
		assert.NoError(t, events.NoopPublisher{}.Publish(ctx, event()))
	})
}

func TestKafkaPublisher(t *testing.T) {
	brokers := os.Getenv("TEST_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("TEST_KAFKA_BROKERS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	publisher := events.NewKafkaPublisher(strings.Split(brokers, ","), "ledger.transactions.test")
	defer publisher.Close()

	assert.NoError(t, publisher.Publish(ctx, event()))
}
