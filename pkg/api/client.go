package api

// API CLIENT

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

type Options struct {
	// Token is sent as a Bearer token; the admin endpoints require it.
	Token        string
	ReadTimeout  time.Duration
	OrderTimeout time.Duration
}

type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	readTimeout  time.Duration
	orderTimeout time.Duration
	logger       *zap.Logger
}

func NewClient(baseURL string, opts Options, logger *zap.Logger) *Client {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.OrderTimeout <= 0 {
		opts.OrderTimeout = 15 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        opts.Token,
		httpClient:   &http.Client{},
		readTimeout:  opts.ReadTimeout,
		orderTimeout: opts.OrderTimeout,
		logger:       logger,
	}
}

func (c *Client) GetProducts(ctx context.Context) ([]Product, error) {
	var resp struct {
		Products []Product `json:"products"`
	}
	if err := c.doJSON(ctx, c.readTimeout, http.MethodGet, "/api/products", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// GetUser returns the stored profile and whether it exists.
func (c *Client) GetUser(ctx context.Context, telegramID string) (*User, bool, error) {
	var resp struct {
		Exists bool  `json:"exists"`
		User   *User `json:"user"`
	}

	query := url.Values{"telegram_id": {telegramID}}
	if err := c.doJSON(ctx, c.readTimeout, http.MethodGet, "/api/user", query, nil, &resp); err != nil {
		return nil, false, err
	}
	if !resp.Exists || resp.User == nil {
		return nil, false, nil
	}
	return resp.User, true, nil
}

func (c *Client) UpsertUser(ctx context.Context, update UserUpdate) error {
	return c.doJSON(ctx, c.readTimeout, http.MethodPost, "/api/user", nil, update, nil)
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error) {
	var resp OrderResponse
	if err := c.doJSON(ctx, c.orderTimeout, http.MethodPost, "/api/order", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) MyOrders(ctx context.Context, telegramID string) ([]Order, error) {
	var resp struct {
		Orders []Order `json:"orders"`
	}

	query := url.Values{"telegram_id": {telegramID}}
	if err := c.doJSON(ctx, c.readTimeout, http.MethodGet, "/api/my-orders", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*StatusUpdate, error) {
	var resp StatusUpdate
	path := fmt.Sprintf("/api/admin/orders/%d/status", orderID)
	body := map[string]string{"status": status}
	if err := c.doJSON(ctx, c.orderTimeout, http.MethodPatch, path, nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExportOrders downloads the order workbook (.xlsx).
func (c *Client) ExportOrders(ctx context.Context) ([]byte, error) {
	return c.do(ctx, c.orderTimeout, http.MethodGet, "/api/admin/orders/export", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, timeout time.Duration, method, path string, query url.Values, in, out any) error {
	data, err := c.do(ctx, timeout, method, path, query, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, timeout time.Duration, method, path string, query url.Values, in any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("API request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}
