package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amounts and quantities carry at most this many decimal places.
const MaxScale = 4

const costScale = 8

// Inputs with more fractional digits than this, or more integer digits than
// maxIntegerDigits, are refused before any rescaling.
const (
	maxInputScale    = 18
	maxIntegerDigits = 15
)

// PriceSource returns the current share price of a symbol. Unknown symbols
// yield ErrInvalidSymbol.
type PriceSource interface {
	SharePrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type Position struct {
	Symbol    string
	Quantity  decimal.Decimal
	CostBasis decimal.Decimal
}

func (p Position) AverageCost() decimal.Decimal {
	if p.Quantity.IsZero() {
		return decimal.Zero
	}
	return p.CostBasis.Div(p.Quantity).Round(MaxScale)
}

// State is the persistable part of an account. The transaction log is not
// part of it; Version counts the transactions applied so far.
type State struct {
	ID               string
	Owner            string
	Cash             decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
	RealizedPnL      decimal.Decimal
	Positions        []Position
	Version          int64
	CreatedAt        time.Time
}

type Option func(*Account)

func WithClock(now func() time.Time) Option {
	return func(a *Account) {
		a.now = now
	}
}

// WithIDGenerator replaces uuid.NewString for transaction ids.
func WithIDGenerator(fn func() string) Option {
	return func(a *Account) {
		a.newID = fn
	}
}

// WithInitialDeposit opens the account with a deposit. Ignored by Restore.
func WithInitialDeposit(amount decimal.Decimal) Option {
	return func(a *Account) {
		a.initialDeposit = amount
	}
}

// Account is a trading account: cash, share positions and an append-only
// transaction log. It is safe for concurrent use.
type Account struct {
	mu sync.RWMutex

	id               string
	owner            string
	cash             decimal.Decimal
	positions        map[string]Position
	log              []Transaction
	totalDeposits    decimal.Decimal
	totalWithdrawals decimal.Decimal
	realized         decimal.Decimal
	version          int64
	createdAt        time.Time

	prices         PriceSource
	now            func() time.Time
	newID          func() string
	initialDeposit decimal.Decimal
}

func newAccount(id, owner string, prices PriceSource, opts []Option) *Account {
	a := &Account{
		id:        id,
		owner:     owner,
		positions: map[string]Position{},
		prices:    prices,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// New opens an empty account, or one funded by WithInitialDeposit.
func New(id, owner string, prices PriceSource, opts ...Option) (*Account, error) {
	a := newAccount(id, owner, prices, opts)
	a.createdAt = a.now()
	if !a.initialDeposit.IsZero() {
		if _, err := a.Deposit(a.initialDeposit); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Restore rebuilds an account from persisted state. New transactions continue
// the sequence after s.Version.
func Restore(s State, prices PriceSource, opts ...Option) *Account {
	a := newAccount(s.ID, s.Owner, prices, opts)
	a.cash = s.Cash
	a.totalDeposits = s.TotalDeposits
	a.totalWithdrawals = s.TotalWithdrawals
	a.realized = s.RealizedPnL
	a.version = s.Version
	a.createdAt = s.CreatedAt
	for _, p := range s.Positions {
		if p.Quantity.IsPositive() {
			a.positions[p.Symbol] = p
		}
	}
	return a
}

func (a *Account) ID() string    { return a.id }
func (a *Account) Owner() string { return a.owner }

func (a *Account) Deposit(amount decimal.Decimal, opts ...TxOption) (Transaction, error) {
	if !validQuantity(amount) {
		return Transaction{}, fmt.Errorf("%w: deposit must be positive with at most %d decimals", ErrInvalidAmount, MaxScale)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.cash = a.cash.Add(amount)
	a.totalDeposits = a.totalDeposits.Add(amount)
	return a.append(Transaction{Type: Deposit, Amount: amount}, opts), nil
}

func (a *Account) Withdraw(amount decimal.Decimal, opts ...TxOption) (Transaction, error) {
	if !validQuantity(amount) {
		return Transaction{}, fmt.Errorf("%w: withdrawal must be positive with at most %d decimals", ErrInvalidAmount, MaxScale)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if amount.GreaterThan(a.cash) {
		return Transaction{}, fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, a.cash, amount)
	}
	a.cash = a.cash.Sub(amount)
	a.totalWithdrawals = a.totalWithdrawals.Add(amount)
	return a.append(Transaction{Type: Withdrawal, Amount: amount.Neg()}, opts), nil
}

func (a *Account) Buy(ctx context.Context, symbol string, quantity decimal.Decimal, opts ...TxOption) (Transaction, error) {
	symbol = NormalizeSymbol(symbol)
	if !validQuantity(quantity) {
		return Transaction{}, fmt.Errorf("%w: quantity must be positive with at most %d decimals", ErrInvalidAmount, MaxScale)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	price, err := a.sharePrice(ctx, symbol)
	if err != nil {
		return Transaction{}, err
	}
	cost := price.Mul(quantity)
	if cost.GreaterThan(a.cash) {
		return Transaction{}, fmt.Errorf("%w: buying %s %s costs %s, balance %s", ErrInsufficientFunds, quantity, symbol, cost, a.cash)
	}

	pos := a.positions[symbol]
	pos.Symbol = symbol
	pos.Quantity = pos.Quantity.Add(quantity)
	pos.CostBasis = pos.CostBasis.Add(cost)
	a.positions[symbol] = pos
	a.cash = a.cash.Sub(cost)

	return a.append(Transaction{
		Type:     Buy,
		Symbol:   symbol,
		Quantity: decimal.NewNullDecimal(quantity),
		Price:    decimal.NewNullDecimal(price),
		Amount:   cost.Neg(),
	}, opts), nil
}

func (a *Account) Sell(ctx context.Context, symbol string, quantity decimal.Decimal, opts ...TxOption) (Transaction, error) {
	symbol = NormalizeSymbol(symbol)
	if !validQuantity(quantity) {
		return Transaction{}, fmt.Errorf("%w: quantity must be positive with at most %d decimals", ErrInvalidAmount, MaxScale)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	price, err := a.sharePrice(ctx, symbol)
	if err != nil {
		return Transaction{}, err
	}
	pos, ok := a.positions[symbol]
	if !ok || pos.Quantity.LessThan(quantity) {
		return Transaction{}, fmt.Errorf("%w: holding %s %s, selling %s", ErrInsufficientShares, pos.Quantity, symbol, quantity)
	}

	proceeds := price.Mul(quantity)
	released := pos.CostBasis
	if quantity.LessThan(pos.Quantity) {
		released = pos.CostBasis.Mul(quantity).Div(pos.Quantity).Round(costScale)
	}
	pos.Quantity = pos.Quantity.Sub(quantity)
	pos.CostBasis = pos.CostBasis.Sub(released)
	if pos.Quantity.IsZero() {
		delete(a.positions, symbol)
	} else {
		a.positions[symbol] = pos
	}
	a.cash = a.cash.Add(proceeds)
	a.realized = a.realized.Add(proceeds.Sub(released))

	return a.append(Transaction{
		Type:     Sell,
		Symbol:   symbol,
		Quantity: decimal.NewNullDecimal(quantity),
		Price:    decimal.NewNullDecimal(price),
		Amount:   proceeds,
	}, opts), nil
}

// append must be called with the write lock held.
func (a *Account) append(t Transaction, opts []TxOption) Transaction {
	for _, opt := range opts {
		opt(&t)
	}
	a.version++
	t.ID = a.newID()
	t.AccountID = a.id
	t.Sequence = a.version
	t.Timestamp = a.now()
	t.BalanceAfter = a.cash
	a.log = append(a.log, t)
	return t
}

func (a *Account) sharePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if symbol == "" {
		return decimal.Zero, fmt.Errorf("%w: empty symbol", ErrInvalidSymbol)
	}
	if a.prices == nil {
		return decimal.Zero, fmt.Errorf("%w: no price source for %s", ErrInvalidSymbol, symbol)
	}
	price, err := a.prices.SharePrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s has no valid price", ErrInvalidSymbol, symbol)
	}
	return price, nil
}

func (a *Account) Cash() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cash
}

// Holdings returns a copy of the share quantity held per symbol.
func (a *Account) Holdings() map[string]decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(a.positions))
	for sym, p := range a.positions {
		out[sym] = p.Quantity
	}
	return out
}

// Positions returns open positions sorted by symbol.
func (a *Account) Positions() []Position {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sortedPositions()
}

func (a *Account) sortedPositions() []Position {
	out := make([]Position, 0, len(a.positions))
	for _, p := range a.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Transactions returns the transactions appended since the account was
// opened or restored, oldest first.
func (a *Account) Transactions() []Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Transaction, len(a.log))
	copy(out, a.log)
	return out
}

func (a *Account) TotalDeposits() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.totalDeposits
}

// NetDeposits is deposits minus withdrawals, the baseline profit and loss is
// measured against.
func (a *Account) NetDeposits() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.totalDeposits.Sub(a.totalWithdrawals)
}

func (a *Account) RealizedPnL() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.realized
}

func (a *Account) Version() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.version
}

func (a *Account) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return State{
		ID:               a.id,
		Owner:            a.owner,
		Cash:             a.cash,
		TotalDeposits:    a.totalDeposits,
		TotalWithdrawals: a.totalWithdrawals,
		RealizedPnL:      a.realized,
		Positions:        a.sortedPositions(),
		Version:          a.version,
		CreatedAt:        a.createdAt,
	}
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// InBounds reports whether v is small enough, in both scale and magnitude,
// to take part in ledger arithmetic.
func InBounds(v decimal.Decimal) bool {
	exp := v.Exponent()
	if exp < -maxInputScale || exp > maxIntegerDigits {
		return false
	}
	return v.NumDigits()+int(exp) <= maxIntegerDigits
}

func validQuantity(v decimal.Decimal) bool {
	return InBounds(v) && v.IsPositive() && v.Equal(v.Truncate(MaxScale))
}
