package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradeledger/src/events"
	"tradeledger/src/ledger"
	"tradeledger/src/models"
	"tradeledger/src/repositories"
	"tradeledger/src/schemas"
	"tradeledger/src/utils"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidOwner        = errors.New("owner is required")
	ErrIdempotencyConflict = errors.New("idempotency key already used for a different request")
	ErrInvalidQuery        = errors.New("invalid query")
)

type AccountServiceI interface {
	OpenAccount(ctx context.Context, owner string, initialDeposit decimal.Decimal) (*schemas.AccountResponse, error)
	ListAccounts(ctx context.Context) ([]*schemas.AccountResponse, error)
	GetAccount(ctx context.Context, accountID string) (*schemas.AccountResponse, error)
	LoadAccount(ctx context.Context, accountID string) (*ledger.Account, error)
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (*schemas.TransactionResponse, error)
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (*schemas.TransactionResponse, error)
	Buy(ctx context.Context, accountID, symbol string, quantity decimal.Decimal, idempotencyKey string) (*schemas.TransactionResponse, error)
	Sell(ctx context.Context, accountID, symbol string, quantity decimal.Decimal, idempotencyKey string) (*schemas.TransactionResponse, error)
	ListTransactions(ctx context.Context, accountID string, query schemas.TransactionQuery) (*schemas.TransactionPage, error)
	GetTransaction(ctx context.Context, accountID, transactionID string) (*schemas.TransactionResponse, error)
	TradeHistory(ctx context.Context, accountID, symbol string) ([]schemas.TransactionResponse, error)
}

type AccountService struct {
	db              *gorm.DB
	accountRepo     repositories.AccountRepository
	holdingRepo     repositories.HoldingRepository
	transactionRepo repositories.TransactionRepository
	prices          ledger.PriceSource
	publisher       events.Publisher
	locks           *accountLocks
	backoff         func() retry.Backoff
	publishTimeout  time.Duration
}

var _ AccountServiceI = (*AccountService)(nil)

func NewAccountService(
	db *gorm.DB,
	accountRepo repositories.AccountRepository,
	holdingRepo repositories.HoldingRepository,
	transactionRepo repositories.TransactionRepository,
	prices ledger.PriceSource,
	publisher events.Publisher,
) *AccountService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &AccountService{
		db:              db,
		accountRepo:     accountRepo,
		holdingRepo:     holdingRepo,
		transactionRepo: transactionRepo,
		prices:          prices,
		publisher:       publisher,
		locks:           newAccountLocks(),
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(5, retry.NewExponential(10*time.Millisecond))
		},
		publishTimeout: 2 * time.Second,
	}
}

// OpenAccount creates an account, funded when initialDeposit is positive.
func (s *AccountService) OpenAccount(ctx context.Context, owner string, initialDeposit decimal.Decimal) (*schemas.AccountResponse, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrInvalidOwner
	}

	acc, err := ledger.New(uuid.NewString(), owner, s.prices, ledger.WithInitialDeposit(initialDeposit))
	if err != nil {
		return nil, err
	}
	state := acc.State()
	account := accountModel(state)
	transactions := acc.Transactions()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.Create(ctx, account, tx); err != nil {
			return err
		}
		for _, t := range transactions {
			if err := s.transactionRepo.Create(ctx, transactionModel(t), tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open account: %w", err)
	}

	utils.LoggerFromContext(ctx).WithField("account_id", account.ID).Info("Account opened")
	for _, t := range transactions {
		s.publish(ctx, t)
	}
	return accountResponse(*account, nil), nil
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]*schemas.AccountResponse, error) {
	accounts, err := s.accountRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]*schemas.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		holdings, err := s.holdingRepo.GetByAccountID(ctx, a.ID, nil)
		if err != nil {
			return nil, err
		}
		resp = append(resp, accountResponse(a, holdings))
	}
	return resp, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*schemas.AccountResponse, error) {
	account, holdings, err := s.fetch(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return accountResponse(*account, holdings), nil
}

// LoadAccount restores the ledger account from storage, priced by the
// service's price source.
func (s *AccountService) LoadAccount(ctx context.Context, accountID string) (*ledger.Account, error) {
	account, holdings, err := s.fetch(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return ledger.Restore(accountState(*account, holdings), s.prices), nil
}

func (s *AccountService) fetch(ctx context.Context, accountID string) (*models.Account, []models.Holding, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID, nil)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	if err != nil {
		return nil, nil, err
	}
	holdings, err := s.holdingRepo.GetByAccountID(ctx, accountID, nil)
	if err != nil {
		return nil, nil, err
	}
	return account, holdings, nil
}

func (s *AccountService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (*schemas.TransactionResponse, error) {
	return s.apply(ctx, accountID, mutation{kind: ledger.Deposit, quantity: amount}, idempotencyKey)
}

func (s *AccountService) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (*schemas.TransactionResponse, error) {
	return s.apply(ctx, accountID, mutation{kind: ledger.Withdrawal, quantity: amount}, idempotencyKey)
}

func (s *AccountService) Buy(ctx context.Context, accountID, symbol string, quantity decimal.Decimal, idempotencyKey string) (*schemas.TransactionResponse, error) {
	return s.apply(ctx, accountID, mutation{kind: ledger.Buy, symbol: ledger.NormalizeSymbol(symbol), quantity: quantity}, idempotencyKey)
}

func (s *AccountService) Sell(ctx context.Context, accountID, symbol string, quantity decimal.Decimal, idempotencyKey string) (*schemas.TransactionResponse, error) {
	return s.apply(ctx, accountID, mutation{kind: ledger.Sell, symbol: ledger.NormalizeSymbol(symbol), quantity: quantity}, idempotencyKey)
}

// mutation is one requested ledger operation. quantity holds the cash amount
// for deposits and withdrawals.
type mutation struct {
	kind     ledger.TransactionType
	symbol   string
	quantity decimal.Decimal
}

func (m mutation) run(ctx context.Context, acc *ledger.Account, opts ...ledger.TxOption) (ledger.Transaction, error) {
	switch m.kind {
	case ledger.Deposit:
		return acc.Deposit(m.quantity, opts...)
	case ledger.Withdrawal:
		return acc.Withdraw(m.quantity, opts...)
	case ledger.Buy:
		return acc.Buy(ctx, m.symbol, m.quantity, opts...)
	case ledger.Sell:
		return acc.Sell(ctx, m.symbol, m.quantity, opts...)
	}
	return ledger.Transaction{}, fmt.Errorf("unsupported transaction type %s", m.kind)
}

// matches reports whether a stored transaction records this same request.
func (m mutation) matches(t *models.Transaction) bool {
	if t.Type != string(m.kind) {
		return false
	}
	switch m.kind {
	case ledger.Deposit:
		return t.Amount.Equal(m.quantity)
	case ledger.Withdrawal:
		return t.Amount.Equal(m.quantity.Neg())
	default:
		return t.Symbol == m.symbol && t.Quantity.Valid && t.Quantity.Decimal.Equal(m.quantity)
	}
}

// apply runs m against the stored account under the account lock and commits
// the result. A commit that loses a version race is retried on fresh state.
func (s *AccountService) apply(ctx context.Context, accountID string, m mutation, idempotencyKey string) (*schemas.TransactionResponse, error) {
	unlock := s.locks.lock(accountID)
	defer unlock()

	if idempotencyKey != "" {
		if resp, err := s.replay(ctx, accountID, m, idempotencyKey); resp != nil || err != nil {
			return resp, err
		}
	}

	var opts []ledger.TxOption
	if idempotencyKey != "" {
		opts = append(opts, ledger.IdempotencyKey(idempotencyKey))
	}

	var committed ledger.Transaction
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		acc, err := s.LoadAccount(ctx, accountID)
		if err != nil {
			return err
		}
		expected := acc.Version()
		t, err := m.run(ctx, acc, opts...)
		if err != nil {
			return err
		}
		if err := s.commit(ctx, acc, expected, t); err != nil {
			if errors.Is(err, repositories.ErrStaleAccount) {
				return retry.RetryableError(err)
			}
			return err
		}
		committed = t
		return nil
	})
	if err != nil {
		if idempotencyKey != "" && !isDomainError(err) {
			// Another process may have committed the same key first.
			if resp, rerr := s.replay(ctx, accountID, m, idempotencyKey); resp != nil || rerr != nil {
				return resp, rerr
			}
		}
		return nil, err
	}

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"account_id":     accountID,
		"transaction_id": committed.ID,
		"type":           committed.Type,
		"sequence":       committed.Sequence,
	}).Info("Transaction committed")
	// Published under the account lock so events leave in sequence order.
	s.publish(ctx, committed)
	return transactionResponse(transactionModel(committed)), nil
}

// replay returns the stored response for an idempotency key, nil when the
// key is unused.
func (s *AccountService) replay(ctx context.Context, accountID string, m mutation, key string) (*schemas.TransactionResponse, error) {
	existing, err := s.transactionRepo.GetByIdempotencyKey(ctx, accountID, key, nil)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !m.matches(existing) {
		return nil, fmt.Errorf("%w: %s", ErrIdempotencyConflict, key)
	}
	resp := transactionResponse(existing)
	resp.Replayed = true
	return resp, nil
}

// commit persists the account balances, the touched holding and the new
// transaction atomically. expected is the version the account was loaded at.
func (s *AccountService) commit(ctx context.Context, acc *ledger.Account, expected int64, t ledger.Transaction) error {
	state := acc.State()
	account := accountModel(state)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.UpdateBalances(ctx, account, expected, tx); err != nil {
			return err
		}
		if t.Type.IsTrade() {
			if pos, ok := findPosition(state.Positions, t.Symbol); ok {
				if err := s.holdingRepo.Upsert(ctx, holdingModel(state.ID, pos), tx); err != nil {
					return err
				}
			} else if err := s.holdingRepo.Delete(ctx, state.ID, t.Symbol, tx); err != nil {
				return err
			}
		}
		return s.transactionRepo.Create(ctx, transactionModel(t), tx)
	})
}

func (s *AccountService) publish(ctx context.Context, t ledger.Transaction) {
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, transactionEvent(t)); err != nil {
		utils.LoggerFromContext(ctx).WithError(err).
			WithField("transaction_id", t.ID).
			Warn("Failed to publish transaction event")
	}
}

func (s *AccountService) ListTransactions(ctx context.Context, accountID string, query schemas.TransactionQuery) (*schemas.TransactionPage, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	filter := repositories.TransactionFilter{
		Symbol:     ledger.NormalizeSymbol(query.Symbol),
		StartDate:  query.StartDate,
		EndDate:    query.EndDate,
		Limit:      query.Limit,
		Offset:     query.Offset,
		Descending: query.Descending,
	}
	if query.Type != "" {
		t, err := ledger.ParseTransactionType(query.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		filter.Type = string(t)
	}

	total, err := s.transactionRepo.CountByAccountID(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.transactionRepo.GetByAccountID(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}

	page := &schemas.TransactionPage{
		Items:  make([]schemas.TransactionResponse, 0, len(rows)),
		Total:  total,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	for i := range rows {
		page.Items = append(page.Items, *transactionResponse(&rows[i]))
	}
	return page, nil
}

func (s *AccountService) GetTransaction(ctx context.Context, accountID, transactionID string) (*schemas.TransactionResponse, error) {
	t, err := s.transactionRepo.GetByID(ctx, accountID, transactionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, transactionID)
	}
	if err != nil {
		return nil, err
	}
	return transactionResponse(t), nil
}

// TradeHistory lists the buys and sells of one symbol, oldest first.
func (s *AccountService) TradeHistory(ctx context.Context, accountID, symbol string) ([]schemas.TransactionResponse, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	rows, err := s.transactionRepo.GetByAccountID(ctx, accountID, repositories.TransactionFilter{
		Types:  []string{string(ledger.Buy), string(ledger.Sell)},
		Symbol: ledger.NormalizeSymbol(symbol),
	})
	if err != nil {
		return nil, err
	}
	trades := make([]schemas.TransactionResponse, 0, len(rows))
	for i := range rows {
		trades = append(trades, *transactionResponse(&rows[i]))
	}
	return trades, nil
}

func findPosition(positions []ledger.Position, symbol string) (ledger.Position, bool) {
	for _, p := range positions {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return ledger.Position{}, false
}

func isDomainError(err error) bool {
	return errors.Is(err, ledger.ErrInvalidAmount) ||
		errors.Is(err, ledger.ErrInsufficientFunds) ||
		errors.Is(err, ledger.ErrInsufficientShares) ||
		errors.Is(err, ledger.ErrInvalidSymbol) ||
		errors.Is(err, ErrAccountNotFound)
}
