// Package client talks to the storefront API, usually through the gateway.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/joao-fontenele/storefront/internal/analytics"
	"github.com/joao-fontenele/storefront/internal/domain"
)

// APIError is a non-2xx answer from the storefront.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storefront returned status %d", e.Status)
	}
	return e.Message
}

// Is reports 404 answers as domain.ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == domain.ErrNotFound && e.Status == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type productsResponse struct {
	Products   []domain.Product  `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
}

func (c *Client) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, domain.Pagination, error) {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var resp productsResponse
	if err := c.do(ctx, http.MethodGet, "/products", q, nil, &resp); err != nil {
		return nil, domain.Pagination{}, err
	}
	return resp.Products, resp.Pagination, nil
}

type productResponse struct {
	Product *domain.Product `json:"product"`
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var resp productResponse
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Product, nil
}

type orderResponse struct {
	OrderID string        `json:"orderId"`
	Order   *domain.Order `json:"order"`
}

// PlaceOrder submits a checkout. It satisfies cart.OrderPlacer.
func (c *Client) PlaceOrder(ctx context.Context, checkout domain.Checkout) (*domain.Order, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", nil, checkout, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return nil, errors.New("storefront returned no order")
	}
	return resp.Order, nil
}

func (c *Client) Track(ctx context.Context, orderID, phone string) (*domain.Order, error) {
	q := url.Values{}
	q.Set("orderId", orderID)
	q.Set("phone", phone)

	var resp orderResponse
	if err := c.do(ctx, http.MethodGet, "/orders/track", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

type ordersResponse struct {
	Orders []domain.Order       `json:"orders"`
	Stats  analytics.Aggregates `json:"stats"`
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, analytics.Aggregates, error) {
	var resp ordersResponse
	if err := c.do(ctx, http.MethodGet, "/admin/orders", nil, nil, &resp); err != nil {
		return nil, analytics.Aggregates{}, err
	}
	return resp.Orders, resp.Stats, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodGet, "/admin/orders/"+url.PathEscape(orderID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

type updateStatusRequest struct {
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"orderStatus"`
}

func (c *Client) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	var resp orderResponse
	body := updateStatusRequest{OrderID: orderID, Status: status}
	if err := c.do(ctx, http.MethodPut, "/admin/orders", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

type analyticsResponse struct {
	Analytics analytics.Report `json:"analytics"`
}

func (c *Client) Analytics(ctx context.Context) (analytics.Report, error) {
	var resp analyticsResponse
	if err := c.do(ctx, http.MethodGet, "/admin/analytics", nil, nil, &resp); err != nil {
		return analytics.Report{}, err
	}
	return resp.Analytics, nil
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil {
			apiErr.Message = e.Error
			apiErr.Fields = e.Fields
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
