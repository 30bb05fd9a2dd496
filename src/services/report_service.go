package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"tradeledger/src/ledger"
	"tradeledger/src/models"
	"tradeledger/src/pricing"
	"tradeledger/src/repositories"
	"tradeledger/src/schemas"
	"tradeledger/src/utils"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/xuri/excelize/v2"
)

type AccountLoader interface {
	LoadAccount(ctx context.Context, accountID string) (*ledger.Account, error)
}

type QuoteLister interface {
	Quotes(ctx context.Context) ([]pricing.Quote, error)
}

type ReportServiceI interface {
	GetHoldingsReport(ctx context.Context, accountID string) ([]schemas.HoldingReport, error)
	GetPortfolioSummary(ctx context.Context, accountID string) (*schemas.PortfolioSummary, error)
	GenerateXLSXStatement(ctx context.Context, accountID string) (*excelize.File, error)
	WriteTransactionsCSV(ctx context.Context, accountID string, w io.Writer) error
	GetPerformance(ctx context.Context, accountID string, query schemas.PerformanceQuery) ([]schemas.PerformancePoint, error)
	RenderPerformanceChart(ctx context.Context, accountID string, query schemas.PerformanceQuery, w io.Writer) error
}

type ReportService struct {
	accounts        AccountLoader
	transactionRepo repositories.TransactionRepository
	snapshotRepo    repositories.SnapshotRepository
	quotes          QuoteLister
}

var _ ReportServiceI = (*ReportService)(nil)

func NewReportService(
	accounts AccountLoader,
	transactionRepo repositories.TransactionRepository,
	snapshotRepo repositories.SnapshotRepository,
	quotes QuoteLister,
) *ReportService {
	return &ReportService{
		accounts:        accounts,
		transactionRepo: transactionRepo,
		snapshotRepo:    snapshotRepo,
		quotes:          quotes,
	}
}

func (rs *ReportService) GetHoldingsReport(ctx context.Context, accountID string) ([]schemas.HoldingReport, error) {
	acc, err := rs.accounts.LoadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	reports, err := acc.HoldingsReport(ctx)
	if err != nil {
		return nil, err
	}
	return holdingReports(reports, rs.names(ctx)), nil
}

func (rs *ReportService) GetPortfolioSummary(ctx context.Context, accountID string) (*schemas.PortfolioSummary, error) {
	acc, err := rs.accounts.LoadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	summary, err := acc.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return summaryResponse(summary, rs.names(ctx)), nil
}

// names maps symbols to company names. Lookup failures only cost the names.
func (rs *ReportService) names(ctx context.Context) map[string]string {
	names := map[string]string{}
	if rs.quotes == nil {
		return names
	}
	quotes, err := rs.quotes.Quotes(ctx)
	if err != nil {
		utils.LoggerFromContext(ctx).WithError(err).Warn("Could not load symbol names")
		return names
	}
	for _, q := range quotes {
		names[q.Symbol] = q.Name
	}
	return names
}

func (rs *ReportService) allTransactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return rs.transactionRepo.GetByAccountID(ctx, accountID, repositories.TransactionFilter{})
}

var transactionColumns = []string{
	"Sequence", "Timestamp", "Type", "Symbol", "Quantity", "Price", "Amount", "Balance After", "Description",
}

func transactionRow(t models.Transaction) []string {
	quantity, price := "", ""
	if t.Quantity.Valid {
		quantity = t.Quantity.Decimal.String()
	}
	if t.Price.Valid {
		price = t.Price.Decimal.String()
	}
	return []string{
		fmt.Sprint(t.Sequence),
		t.CreatedAt.UTC().Format(time.RFC3339),
		t.Type,
		t.Symbol,
		quantity,
		price,
		t.Amount.String(),
		t.BalanceAfter.String(),
		t.Description,
	}
}

// WriteTransactionsCSV writes the full transaction history as CSV.
func (rs *ReportService) WriteTransactionsCSV(ctx context.Context, accountID string, w io.Writer) error {
	if _, err := rs.accounts.LoadAccount(ctx, accountID); err != nil {
		return err
	}
	transactions, err := rs.allTransactions(ctx, accountID)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, transactionRow(t))
	}
	df, err := utils.NewStringDataFrame(transactionColumns, rows)
	if err != nil {
		return err
	}
	return utils.WriteDataFrameCSV(df, w)
}

const (
	summarySheet      = "Summary"
	holdingsSheet     = "Holdings"
	transactionsSheet = "Transactions"
)

// GenerateXLSXStatement builds a workbook with the portfolio summary, the
// valued holdings and the transaction history.
func (rs *ReportService) GenerateXLSXStatement(ctx context.Context, accountID string) (*excelize.File, error) {
	summary, err := rs.GetPortfolioSummary(ctx, accountID)
	if err != nil {
		return nil, err
	}
	transactions, err := rs.allTransactions(ctx, accountID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	summaryRows := [][]interface{}{
		{"Field", "Value"},
		{"Account", summary.AccountID},
		{"Owner", summary.Owner},
		{"As Of", summary.AsOf.Format(time.RFC3339)},
		{"Cash", summary.Cash.InexactFloat64()},
		{"Market Value", summary.MarketValue.InexactFloat64()},
		{"Total Value", summary.TotalValue.InexactFloat64()},
		{"Total Deposits", summary.TotalDeposits.InexactFloat64()},
		{"Total Withdrawals", summary.TotalWithdrawals.InexactFloat64()},
		{"Net Deposits", summary.NetDeposits.InexactFloat64()},
		{"Profit/Loss", summary.ProfitLoss.InexactFloat64()},
		{"Profit/Loss %", summary.ProfitLossPercent.InexactFloat64()},
		{"Realized P&L", summary.RealizedPnL.InexactFloat64()},
		{"Unrealized P&L", summary.UnrealizedPnL.InexactFloat64()},
	}
	if err := rs.writeRows(f, summarySheet, summaryRows); err != nil {
		return nil, err
	}

	holdingRows := [][]interface{}{
		{"Symbol", "Name", "Quantity", "Price", "Market Value", "Average Cost", "Cost Basis", "Unrealized P&L", "Unrealized %"},
	}
	for _, h := range summary.Holdings {
		holdingRows = append(holdingRows, []interface{}{
			h.Symbol, h.Name,
			h.Quantity.InexactFloat64(), h.Price.InexactFloat64(), h.MarketValue.InexactFloat64(),
			h.AverageCost.InexactFloat64(), h.CostBasis.InexactFloat64(),
			h.UnrealizedPnL.InexactFloat64(), h.UnrealizedPnLPercent.InexactFloat64(),
		})
	}
	if _, err := f.NewSheet(holdingsSheet); err != nil {
		return nil, err
	}
	if err := rs.writeRows(f, holdingsSheet, holdingRows); err != nil {
		return nil, err
	}

	txRows := [][]interface{}{toInterfaces(transactionColumns)}
	for _, t := range transactions {
		txRows = append(txRows, toInterfaces(transactionRow(t)))
	}
	if _, err := f.NewSheet(transactionsSheet); err != nil {
		return nil, err
	}
	if err := rs.writeRows(f, transactionsSheet, txRows); err != nil {
		return nil, err
	}

	if err := rs.applyStylesToAllSheets(f); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

func (rs *ReportService) writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

// applyStylesToAllSheets styles the header row and borders the data cells of
// every sheet.
func (rs *ReportService) applyStylesToAllSheets(f *excelize.File) error {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E6E6E6"}, Pattern: 1},
		Border: border,
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return err
	}

	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			continue
		}
		lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
		if err != nil {
			return err
		}

		if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
			return err
		}
		if len(rows) > 1 {
			if err := f.SetCellStyle(sheetName, "A2", fmt.Sprintf("%s%d", lastCol, len(rows)), dataStyle); err != nil {
				return err
			}
		}
		if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
			return err
		}
	}
	return nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// GetPerformance returns the account valuation history from snapshots. With
// an interval the history is sampled on that calendar step: each point is the
// latest snapshot taken by the end of its day.
func (rs *ReportService) GetPerformance(ctx context.Context, accountID string, query schemas.PerformanceQuery) ([]schemas.PerformancePoint, error) {
	if _, err := rs.accounts.LoadAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if query.EndDate.Before(query.StartDate) {
		return nil, fmt.Errorf("%w: endDate must be after startDate", ErrInvalidQuery)
	}

	if query.Interval == "" {
		snapshots, err := rs.snapshotRepo.GetByAccountID(ctx, accountID, query.StartDate, query.EndDate)
		if err != nil {
			return nil, err
		}
		points := make([]schemas.PerformancePoint, 0, len(snapshots))
		for _, s := range snapshots {
			points = append(points, performancePoint(s.TakenAt, s))
		}
		return points, nil
	}

	interval, err := utils.ParseTimeInterval(query.Interval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	dates, err := utils.GenerateDates(query.StartDate, query.EndDate, interval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	snapshots, err := rs.snapshotRepo.GetByAccountID(ctx, accountID, time.Unix(0, 0).UTC(), utils.EndOfDay(query.EndDate))
	if err != nil {
		return nil, err
	}

	points := make([]schemas.PerformancePoint, 0, len(dates))
	next := 0
	var latest *models.Snapshot
	for _, date := range dates {
		cutoff := utils.EndOfDay(date)
		for next < len(snapshots) && !snapshots[next].TakenAt.After(cutoff) {
			latest = &snapshots[next]
			next++
		}
		if latest == nil {
			continue
		}
		points = append(points, performancePoint(date, *latest))
	}
	return points, nil
}

func performancePoint(date time.Time, s models.Snapshot) schemas.PerformancePoint {
	return schemas.PerformancePoint{
		Date:        date.UTC(),
		Cash:        s.Cash,
		MarketValue: s.MarketValue,
		TotalValue:  s.TotalValue,
		NetDeposits: s.NetDeposits,
		ProfitLoss:  s.ProfitLoss,
	}
}

// RenderPerformanceChart writes an HTML line chart of total value against net
// deposits.
func (rs *ReportService) RenderPerformanceChart(ctx context.Context, accountID string, query schemas.PerformanceQuery, w io.Writer) error {
	points, err := rs.GetPerformance(ctx, accountID, query)
	if err != nil {
		return err
	}

	labels := make([]string, 0, len(points))
	totals := make([]opts.LineData, 0, len(points))
	baseline := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.Date.Format(utils.ShortDashDateLayout))
		totals = append(totals, opts.LineData{Value: p.TotalValue.InexactFloat64()})
		baseline = append(baseline, opts.LineData{Value: p.NetDeposits.InexactFloat64()})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    "Portfolio performance",
		Subtitle: accountID,
	}))
	line.SetXAxis(labels).
		AddSeries("Total value", totals, charts.WithLineStyleOpts(opts.LineStyle{Color: utils.GetChartColor(0)})).
		AddSeries("Net deposits", baseline, charts.WithLineStyleOpts(opts.LineStyle{Color: utils.GetChartColor(1)}))
	return line.Render(w)
}
