package controllers

import (
	"context"

	"tradeledger/src/pricing"
	"tradeledger/src/schemas"
)

func (c *Controller) GetPrices(ctx context.Context) ([]pricing.Quote, error) {
	return c.Prices.Quotes(ctx)
}

func (c *Controller) GetPrice(ctx context.Context, symbol string) (pricing.Quote, error) {
	return c.Prices.Quote(ctx, symbol)
}

func (c *Controller) SetPrice(ctx context.Context, symbol string, req *schemas.SetPriceRequest) (pricing.Quote, error) {
	return c.Prices.SetPrice(ctx, symbol, *req.Price)
}

func (c *Controller) AddSymbol(ctx context.Context, req *schemas.AddSymbolRequest) (pricing.Quote, error) {
	return c.Prices.AddSymbol(ctx, req.Symbol, req.Name, *req.Price)
}
