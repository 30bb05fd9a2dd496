package controllers

import (
	"context"
	"time"

	"tradeledger/src/config"
	"tradeledger/src/pricing"
	"tradeledger/src/services"

	"github.com/go-chi/jwtauth"
	"github.com/shopspring/decimal"
)

// PriceBook is the price table the API reads and edits.
type PriceBook interface {
	Quotes(ctx context.Context) ([]pricing.Quote, error)
	Quote(ctx context.Context, symbol string) (pricing.Quote, error)
	SetPrice(ctx context.Context, symbol string, price decimal.Decimal) (pricing.Quote, error)
	AddSymbol(ctx context.Context, symbol, name string, price decimal.Decimal) (pricing.Quote, error)
}

type Controller struct {
	Accounts services.AccountServiceI
	Reports  services.ReportServiceI
	Prices   PriceBook
	// TokenAuth is nil when authentication is disabled.
	TokenAuth *jwtauth.JWTAuth
	Auth      config.AuthConfig
	now       func() time.Time
}

func NewController(accounts services.AccountServiceI, reports services.ReportServiceI, prices PriceBook, auth config.AuthConfig) *Controller {
	c := &Controller{
		Accounts: accounts,
		Reports:  reports,
		Prices:   prices,
		Auth:     auth,
		now:      time.Now,
	}
	if auth.Enabled() {
		c.TokenAuth = jwtauth.New("HS256", []byte(auth.JWTSecret), nil)
	}
	return c
}
