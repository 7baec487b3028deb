package finance

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-fintrack-client/gatekeeper"
)

const (
	PathWallet      = "/wallet"
	PathCategory    = "/category"
	PathTransaction = "/transaction"
	PathAnalytics   = "/analytics"
)

// Client calls the finance REST API through a Gatekeeper.
type Client struct {
	gk *gatekeeper.Gatekeeper
}

func New(gk *gatekeeper.Gatekeeper) *Client {
	return &Client{gk: gk}
}

func (c *Client) Wallets(ctx context.Context) ([]Wallet, error) {
	var wallets []Wallet
	err := c.call(ctx, &gatekeeper.Request{Method: http.MethodGet, Path: PathWallet}, &wallets)
	return wallets, err
}

func (c *Client) CreateWallet(ctx context.Context, w NewWallet) (*Wallet, error) {
	var created Wallet
	if err := c.mutate(ctx, http.MethodPost, PathWallet, w, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := c.call(ctx, &gatekeeper.Request{Method: http.MethodGet, Path: PathCategory}, &categories)
	return categories, err
}

func (c *Client) Transactions(ctx context.Context, walletID string) ([]Transaction, error) {
	if walletID == "" {
		return nil, ErrMissingWallet
	}
	var txs []Transaction
	err := c.call(ctx, &gatekeeper.Request{
		Method: http.MethodGet,
		Path:   PathTransaction,
		Query:  url.Values{"walletId": {walletID}},
	}, &txs)
	return txs, err
}

func (c *Client) CreateTransaction(ctx context.Context, tx NewTransaction) (*Transaction, error) {
	if tx.WalletID == "" {
		return nil, ErrMissingWallet
	}
	var created Transaction
	if err := c.mutate(ctx, http.MethodPost, PathTransaction, tx, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) Analytics(ctx context.Context, q AnalyticsQuery) (*Analytics, error) {
	query := url.Values{}
	if q.WalletID != "" {
		query.Set("walletId", q.WalletID)
	}
	if !q.From.IsZero() {
		query.Set("from", q.From.Format(DateLayout))
	}
	if !q.To.IsZero() {
		query.Set("to", q.To.Format(DateLayout))
	}
	var a Analytics
	if err := c.call(ctx, &gatekeeper.Request{Method: http.MethodGet, Path: PathAnalytics, Query: query}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// mutate sends a state-changing request carrying the anti-forgery token.
func (c *Client) mutate(ctx context.Context, method, path string, body, out any) error {
	req := c.gk.AttachAntiForgery(&gatekeeper.Request{Method: method, Path: path, Body: body})
	return c.call(ctx, req, out)
}

func (c *Client) call(ctx context.Context, req *gatekeeper.Request, out any) error {
	resp, err := c.gk.Send(ctx, req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &APIError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
			Outcome:    resp.Outcome,
			RefreshErr: resp.RefreshErr,
		}
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.Decode(out)
}
