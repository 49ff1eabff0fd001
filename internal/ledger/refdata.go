package ledger

import (
	"context"

	cache "github.com/patrickmn/go-cache"
)

// Reference data backs the operator's import-parameter choices. The lists
// change rarely and the settings panel reopens often, so successful fetches
// are cached for a short TTL.

// Stock is a warehouse record
type Stock struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Description string `json:"description,omitempty"`
	DeletedMark bool   `json:"deleted_mark,omitempty"`
}

// Currency is a ledger currency record
type Currency struct {
	ID           int64   `json:"id"`
	CodeNum      int     `json:"code_num,omitempty"`
	CodeChr      string  `json:"code_chr,omitempty"`
	Name         string  `json:"name"`
	ExchangeRate float64 `json:"exchange_rate,omitempty"`
	IsBase       bool    `json:"is_base,omitempty"`
}

// PriceType is a ledger pricing scheme
type PriceType struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	RoundTo  float64   `json:"round_to,omitempty"`
	Markup   float64   `json:"markup,omitempty"`
	Currency *Currency `json:"currency,omitempty"`
}

// ItemGroup is a catalog grouping node
type ItemGroup struct {
	ID         int64  `json:"id"`
	ParentID   int64  `json:"parent_id,omitempty"`
	Name       string `json:"name"`
	Path       string `json:"path,omitempty"`
	ChildCount int    `json:"child_count,omitempty"`
}

func cachedList[T any](c *Client, ctx context.Context, key, endpoint string, payload interface{}) ([]T, error) {
	if hit, ok := c.cache.Get(key); ok {
		return hit.([]T), nil
	}

	raw, err := c.call(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	list, err := decodeList[T](endpoint, raw)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, list, cache.DefaultExpiration)
	return list, nil
}

// Stocks lists warehouses that are not marked deleted
func (c *Client) Stocks(ctx context.Context) ([]Stock, error) {
	payload := struct {
		DeletedMark bool `json:"deleted_mark"`
	}{DeletedMark: false}
	return cachedList[Stock](c, ctx, "stocks", "Stock/Get", payload)
}

// Currencies lists ledger currencies
func (c *Client) Currencies(ctx context.Context) ([]Currency, error) {
	return cachedList[Currency](c, ctx, "currencies", "Currency/Get", struct{}{})
}

// PriceTypes lists pricing schemes
func (c *Client) PriceTypes(ctx context.Context) ([]PriceType, error) {
	return cachedList[PriceType](c, ctx, "price_types", "PriceType/Get", struct{}{})
}

// ItemGroups lists catalog groups
func (c *Client) ItemGroups(ctx context.Context) ([]ItemGroup, error) {
	return cachedList[ItemGroup](c, ctx, "item_groups", "ItemGroup/Get", struct{}{})
}

// InvalidateCache drops all cached reference data
func (c *Client) InvalidateCache() {
	c.cache.Flush()
}
