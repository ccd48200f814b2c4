// Package payment talks to the hosted payment gateway: it creates orders
// sized in the currency's minor unit and verifies checkout signatures.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/tour-booking/internal/config"
	"github.com/iliyamo/tour-booking/internal/metrics"
)

// OrderRequest asks the gateway for a new order. Amount is in minor units
// (paise for INR).
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is the gateway's view of an order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// GatewayError is a non-2xx answer from the gateway.
type GatewayError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("payment gateway: http %d", e.StatusCode)
	}
	return fmt.Sprintf("payment gateway: http %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

type Client struct {
	// name is stored on bookings as payment_gateway.
	name string

	baseURL   string
	keyID     string
	keySecret string

	// hc is the http client with the configured timeout.
	hc *http.Client
}

func NewClient(cfg config.PaymentConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		name:      cfg.Gateway,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		hc:        &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return c.name }

// KeyID is the public key the checkout widget is opened with.
func (c *Client) KeyID() string { return c.keyID }

// VerifySignature checks a checkout signature against the account secret.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.keySecret, orderID, paymentID, signature)
}

// CreateOrder registers an order with the gateway. It is not retried.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (order *Order, err error) {
	start := time.Now()
	defer func() { metrics.GatewayRequest("create_order", err, time.Since(start)) }()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("createOrder: json.Marshal: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("createOrder: http.NewRequest: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("createOrder: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		gerr := &GatewayError{StatusCode: resp.StatusCode}
		var reply struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &reply) == nil {
			gerr.Code, gerr.Description = reply.Error.Code, reply.Error.Description
		}
		logrus.WithFields(logrus.Fields{
			"gateway": c.name,
			"status":  resp.StatusCode,
			"code":    gerr.Code,
			"receipt": req.Receipt,
		}).Warn("payment gateway rejected order")
		return nil, gerr
	}

	order = new(Order)
	if err := json.NewDecoder(resp.Body).Decode(order); err != nil {
		return nil, fmt.Errorf("createOrder: json.Decode: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("createOrder: gateway returned no order id")
	}
	return order, nil
}
