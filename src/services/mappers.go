package services

import (
	"tradeledger/src/events"
	"tradeledger/src/ledger"
	"tradeledger/src/models"
	"tradeledger/src/schemas"
)

func accountState(a models.Account, holdings []models.Holding) ledger.State {
	positions := make([]ledger.Position, 0, len(holdings))
	for _, h := range holdings {
		positions = append(positions, ledger.Position{
			Symbol:    h.Symbol,
			Quantity:  h.Quantity,
			CostBasis: h.CostBasis,
		})
	}
	return ledger.State{
		ID:               a.ID,
		Owner:            a.Owner,
		Cash:             a.CashBalance,
		TotalDeposits:    a.TotalDeposits,
		TotalWithdrawals: a.TotalWithdrawals,
		RealizedPnL:      a.RealizedPnL,
		Positions:        positions,
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
	}
}

func accountModel(s ledger.State) *models.Account {
	return &models.Account{
		ID:               s.ID,
		Owner:            s.Owner,
		CashBalance:      s.Cash,
		TotalDeposits:    s.TotalDeposits,
		TotalWithdrawals: s.TotalWithdrawals,
		RealizedPnL:      s.RealizedPnL,
		Version:          s.Version,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.CreatedAt,
	}
}

func holdingModel(accountID string, p ledger.Position) *models.Holding {
	return &models.Holding{
		AccountID: accountID,
		Symbol:    p.Symbol,
		Quantity:  p.Quantity,
		CostBasis: p.CostBasis,
	}
}

func transactionModel(t ledger.Transaction) *models.Transaction {
	m := &models.Transaction{
		ID:           t.ID,
		AccountID:    t.AccountID,
		Sequence:     t.Sequence,
		Type:         string(t.Type),
		Symbol:       t.Symbol,
		Quantity:     t.Quantity,
		Price:        t.Price,
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		Description:  t.Description(),
		CreatedAt:    t.Timestamp,
	}
	if t.IdempotencyKey != "" {
		key := t.IdempotencyKey
		m.IdempotencyKey = &key
	}
	return m
}

func transactionResponse(m *models.Transaction) *schemas.TransactionResponse {
	resp := &schemas.TransactionResponse{
		ID:           m.ID,
		AccountID:    m.AccountID,
		Sequence:     m.Sequence,
		Type:         m.Type,
		Symbol:       m.Symbol,
		Quantity:     m.Quantity,
		Price:        m.Price,
		Amount:       m.Amount,
		BalanceAfter: m.BalanceAfter,
		Description:  m.Description,
		Timestamp:    m.CreatedAt.UTC(),
	}
	if m.IdempotencyKey != nil {
		resp.IdempotencyKey = *m.IdempotencyKey
	}
	return resp
}

func accountResponse(a models.Account, holdings []models.Holding) *schemas.AccountResponse {
	resp := &schemas.AccountResponse{
		ID:               a.ID,
		Owner:            a.Owner,
		CashBalance:      a.CashBalance,
		TotalDeposits:    a.TotalDeposits,
		TotalWithdrawals: a.TotalWithdrawals,
		NetDeposits:      a.TotalDeposits.Sub(a.TotalWithdrawals),
		RealizedPnL:      a.RealizedPnL,
		Version:          a.Version,
		Holdings:         make([]schemas.HoldingResponse, 0, len(holdings)),
		CreatedAt:        a.CreatedAt.UTC(),
		UpdatedAt:        a.UpdatedAt.UTC(),
	}
	for _, h := range holdings {
		p := ledger.Position{Symbol: h.Symbol, Quantity: h.Quantity, CostBasis: h.CostBasis}
		resp.Holdings = append(resp.Holdings, schemas.HoldingResponse{
			Symbol:      h.Symbol,
			Quantity:    h.Quantity,
			CostBasis:   h.CostBasis,
			AverageCost: p.AverageCost(),
		})
	}
	return resp
}

func transactionEvent(t ledger.Transaction) events.TransactionCompleted {
	return events.TransactionCompleted{
		TransactionID: t.ID,
		AccountID:     t.AccountID,
		Sequence:      t.Sequence,
		Type:          string(t.Type),
		Symbol:        t.Symbol,
		Quantity:      t.Quantity,
		Price:         t.Price,
		Amount:        t.Amount,
		CashBalance:   t.BalanceAfter,
		Description:   t.Description(),
		OccurredAt:    t.Timestamp,
	}
}

func summaryResponse(s *ledger.Summary, names map[string]string) *schemas.PortfolioSummary {
	resp := &schemas.PortfolioSummary{
		AccountID:         s.AccountID,
		Owner:             s.Owner,
		Cash:              s.Cash,
		MarketValue:       s.MarketValue,
		TotalValue:        s.TotalValue,
		TotalDeposits:     s.TotalDeposits,
		TotalWithdrawals:  s.TotalWithdrawals,
		NetDeposits:       s.NetDeposits,
		ProfitLoss:        s.ProfitLoss,
		ProfitLossPercent: s.ProfitLossPercent,
		RealizedPnL:       s.RealizedPnL,
		UnrealizedPnL:     s.UnrealizedPnL,
		Holdings:          holdingReports(s.Holdings, names),
		TransactionCount:  s.TransactionCount,
		AsOf:              s.AsOf,
	}
	return resp
}

func holdingReports(reports []ledger.HoldingReport, names map[string]string) []schemas.HoldingReport {
	out := make([]schemas.HoldingReport, 0, len(reports))
	for _, r := range reports {
		out = append(out, schemas.HoldingReport{
			Symbol:               r.Symbol,
			Name:                 names[r.Symbol],
			Quantity:             r.Quantity,
			Price:                r.Price,
			MarketValue:          r.MarketValue,
			AverageCost:          r.AverageCost,
			CostBasis:            r.CostBasis,
			UnrealizedPnL:        r.UnrealizedPnL,
			UnrealizedPnLPercent: r.UnrealizedPnLPercent,
			Priced:               r.Priced,
		})
	}
	return out
}
