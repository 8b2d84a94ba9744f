// Package clob implements a lightweight Polymarket CLOB REST client:
//
//   - TickSize / NegRisk / FeeRateBps: public market trading params
//   - DeriveAPIKey:                    bootstrap L2 creds from the L1 wallet
//   - PostOrder:                       submit a signed order
//   - CancelOrder / CancelOrders / CancelAll
//   - OpenOrders / Order:              authenticated order queries
//   - BalanceAllowance:                USDC / conditional balance and approval
//
// Requests go through a shared resty client with timeout and 5xx retry.
// Public reads carry no auth; authenticated calls attach L2 HMAC headers.
package clob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotFound marks a 4xx "no such market / order" response so callers can
// distinguish it from transport failures.
var ErrNotFound = errors.New("clob: not found")

// ErrUnauthenticated is returned from authenticated endpoints before the L2
// credentials have been installed.
var ErrUnauthenticated = errors.New("clob: l2 credentials not set")

// Client is the CLOB REST API client.
type Client struct {
	http *resty.Client

	mu   sync.RWMutex
	auth *Auth
}

// NewClient creates a REST client with retry against the given base URL.
func NewClient(baseURL string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &Client{http: httpClient}
}

// SetAuth installs the wallet auth used for L1/L2 signed requests.
func (c *Client) SetAuth(a *Auth) {
	c.mu.Lock()
	c.auth = a
	c.mu.Unlock()
}

func (c *Client) getAuth() (*Auth, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.auth == nil || !c.auth.Credentials().Complete() {
		return nil, ErrUnauthenticated
	}
	return c.auth, nil
}

// TickSize fetches the minimum price increment for a token's market.
func (c *Client) TickSize(ctx context.Context, tokenID string) (string, error) {
	var result tickSizeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&result).
		Get("/tick-size")
	if err != nil {
		return "", fmt.Errorf("get tick size: %w", err)
	}
	if err := checkLookupStatus(resp, "get tick size"); err != nil {
		return "", err
	}
	return result.MinimumTickSize.String(), nil
}

// NegRisk fetches whether the token's market uses negative risk.
func (c *Client) NegRisk(ctx context.Context, tokenID string) (bool, error) {
	var result negRiskResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&result).
		Get("/neg-risk")
	if err != nil {
		return false, fmt.Errorf("get neg risk: %w", err)
	}
	if err := checkLookupStatus(resp, "get neg risk"); err != nil {
		return false, err
	}
	return result.NegRisk, nil
}

// FeeRateBps fetches the fee rate in basis points for a token's market.
func (c *Client) FeeRateBps(ctx context.Context, tokenID string) (int64, error) {
	var result feeRateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&result).
		Get("/fee-rate")
	if err != nil {
		return 0, fmt.Errorf("get fee rate: %w", err)
	}
	if err := checkLookupStatus(resp, "get fee rate"); err != nil {
		return 0, err
	}
	bps, err := result.FeeRateBps.Int64()
	if err != nil {
		// Some markets report the rate as a decimal string; treat anything
		// unparseable as zero fee rather than failing the whole order.
		return 0, nil
	}
	return bps, nil
}

// DeriveAPIKey derives L2 API credentials via L1 authentication and installs
// them on the client's Auth.
func (c *Client) DeriveAPIKey(ctx context.Context, a *Auth) (Credentials, error) {
	headers, err := a.L1Headers(0)
	if err != nil {
		return Credentials{}, fmt.Errorf("l1 headers: %w", err)
	}

	var result Credentials
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetResult(&result).
		Get("/auth/derive-api-key")
	if err != nil {
		return Credentials{}, fmt.Errorf("derive api key: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Credentials{}, fmt.Errorf("derive api key: status %d: %s", resp.StatusCode(), resp.String())
	}

	a.SetCredentials(result)
	return result, nil
}

// OpenOrders fetches all resting orders, optionally filtered by market
// condition ID and/or asset (token) ID.
func (c *Client) OpenOrders(ctx context.Context, market, assetID string) ([]OpenOrder, error) {
	a, err := c.getAuth()
	if err != nil {
		return nil, err
	}
	const path = "/data/orders"
	headers, err := a.L2Headers(http.MethodGet, path, "")
	if err != nil {
		return nil, fmt.Errorf("l2 headers: %w", err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeaders(headers)
	if market != "" {
		req.SetQueryParam("market", market)
	}
	if assetID != "" {
		req.SetQueryParam("asset_id", assetID)
	}

	var result []OpenOrder
	resp, err := req.SetResult(&result).Get(path)
	if err != nil {
		return nil, fmt.Errorf("get open orders: %w", err)
	}
	if err := checkStatus(resp, "get open orders"); err != nil {
		return nil, err
	}
	return result, nil
}

// Order fetches a single order by ID.
func (c *Client) Order(ctx context.Context, orderID string) (*OpenOrder, error) {
	a, err := c.getAuth()
	if err != nil {
		return nil, err
	}
	path := "/data/order/" + orderID
	headers, err := a.L2Headers(http.MethodGet, path, "")
	if err != nil {
		return nil, fmt.Errorf("l2 headers: %w", err)
	}

	var result OpenOrder
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetResult(&result).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := checkLookupStatus(resp, "get order"); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, ErrNotFound
	}
	return &result, nil
}

// BalanceAllowance fetches balance and exchange allowance for the collateral
// (USDC) or a conditional outcome token.
func (c *Client) BalanceAllowance(ctx context.Context, assetType, tokenID string) (*BalanceAllowance, error) {
	a, err := c.getAuth()
	if err != nil {
		return nil, err
	}
	const path = "/balance-allowance"
	headers, err := a.L2Headers(http.MethodGet, path, "")
	if err != nil {
		return nil, fmt.Errorf("l2 headers: %w", err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParam("asset_type", assetType)
	if tokenID != "" {
		req.SetQueryParam("token_id", tokenID)
	}

	var result BalanceAllowance
	resp, err := req.SetResult(&result).Get(path)
	if err != nil {
		return nil, fmt.Errorf("get balance allowance: %w", err)
	}
	if err := checkStatus(resp, "get balance allowance"); err != nil {
		return nil, err
	}
	return &result, nil
}

// PostOrder submits a signed order to the exchange.
func (c *Client) PostOrder(ctx context.Context, payload *OrderPayload) (*OrderResponse, error) {
	a, err := c.getAuth()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	const path = "/order"
	headers, err := a.L2Headers(http.MethodPost, path, string(body))
	if err != nil {
		return nil, fmt.Errorf("l2 headers: %w", err)
	}

	var result OrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(json.RawMessage(body)).
		SetResult(&result).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("post order: %w", err)
	}
	if err := checkStatus(resp, "post order"); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelOrder cancels a single order by ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*CancelResponse, error) {
	a, err := c.getAuth()
	if err != nil {
		return nil, err
	}

	payload := struct {
		OrderID string `json:"orderID"`
	}{OrderID: orderID}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal cancel request: %w", err)
	}
	const path = "/order"
	headers, err := a.L2Headers(http.MethodDelete, path, string(body))
	if err != nil {
		return nil, fmt.Errorf("l2 headers: %w", err)
	}

	var result CancelResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(json.RawMessage(body)).
		SetResult(&result).
		Delete(path)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if err := checkStatus(resp, "cancel order"); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelAll cancels every resting order for the authenticated account. An
// empty book cancels to an empty result, not an error.
func (c *Client) CancelAll(ctx context.Context) (*CancelResponse, error) {
	a, err := c.getAuth()
	if err != nil {
		return nil, err
	}
	const path = "/cancel-all"
	headers, err := a.L2Headers(http.MethodDelete, path, "")
	if err != nil {
		return nil, fmt.Errorf("l2 headers: %w", err)
	}

	var result CancelResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetResult(&result).
		Delete(path)
	if err != nil {
		return nil, fmt.Errorf("cancel all: %w", err)
	}
	if err := checkStatus(resp, "cancel all"); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelOrders cancels multiple orders by ID in one request.
func (c *Client) CancelOrders(ctx context.Context, orderIDs []string) (*CancelResponse, error) {
	if len(orderIDs) == 0 {
		return &CancelResponse{}, nil
	}
	a, err := c.getAuth()
	if err != nil {
		return nil, err
	}

	payload := struct {
		OrderIDs []string `json:"orderIDs"`
	}{OrderIDs: orderIDs}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal cancel request: %w", err)
	}
	const path = "/orders"
	headers, err := a.L2Headers(http.MethodDelete, path, string(body))
	if err != nil {
		return nil, fmt.Errorf("l2 headers: %w", err)
	}

	var result CancelResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(json.RawMessage(body)).
		SetResult(&result).
		Delete(path)
	if err != nil {
		return nil, fmt.Errorf("cancel orders: %w", err)
	}
	if err := checkStatus(resp, "cancel orders"); err != nil {
		return nil, err
	}
	return &result, nil
}

func checkStatus(resp *resty.Response, op string) error {
	if resp.StatusCode() == http.StatusOK {
		return nil
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode(), resp.String())
}

// checkLookupStatus is checkStatus for per-token lookups, where the CLOB
// answers 400/404 for tokens it does not know.
func checkLookupStatus(resp *resty.Response, op string) error {
	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusNotFound, http.StatusBadRequest:
		return fmt.Errorf("%s: status %d: %s: %w", op, resp.StatusCode(), resp.String(), ErrNotFound)
	default:
		return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode(), resp.String())
	}
}
