package stripeclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/refund"
)

const (
	AppVersion = "1.2.0"
	AppURL     = "https://rippleffect.tech"

	SourcePaymentIntent = "pi"
	SourceCharge        = "ch"
)

type RefundRequest struct {
	Charge               string
	PaymentIntent        string
	Account              string
	RefundApplicationFee bool
}

// NewRefundRequest picks the payment_intent or charge field from the id prefix.
func NewRefundRequest(id, account string) RefundRequest {
	req := RefundRequest{Account: account}
	if IsSourceType(id, SourcePaymentIntent) {
		req.PaymentIntent = id
	} else {
		req.Charge = id
	}
	return req
}

func (r RefundRequest) Params(ctx context.Context) *stripe.RefundParams {
	params := &stripe.RefundParams{
		RefundApplicationFee: stripe.Bool(r.RefundApplicationFee),
	}
	if r.PaymentIntent != "" {
		params.PaymentIntent = stripe.String(r.PaymentIntent)
	} else {
		params.Charge = stripe.String(r.Charge)
	}
	if r.Account != "" {
		params.SetStripeAccount(r.Account)
	}
	params.Context = ctx
	return params
}

type Client struct {
	refunds refund.Client
	appName string

	mu      sync.RWMutex
	account string
	appInfo *stripe.AppInfo
}

type Option func(*Client)

// WithBackend routes API calls through b instead of api.stripe.com.
func WithBackend(b stripe.Backend) Option {
	return func(c *Client) {
		c.refunds.B = b
	}
}

func WithAppName(name string) Option {
	return func(c *Client) {
		c.appName = name
	}
}

func New(secretKey string, opts ...Option) *Client {
	stripe.Key = secretKey
	c := &Client{
		refunds: refund.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewBackend builds an API backend for a custom base URL (stripe-mock, tests).
func NewBackend(url string) stripe.Backend {
	return stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(url),
		MaxNetworkRetries: stripe.Int64(0),
	})
}

func (c *Client) AppName() string {
	return c.appName
}

func (c *Client) SetAccount(accountID string) error {
	accountID = strings.TrimSpace(accountID)
	if !strings.HasPrefix(accountID, "acct_") {
		return fmt.Errorf("invalid stripe account id %q", accountID)
	}
	c.mu.Lock()
	c.account = accountID
	c.mu.Unlock()
	return nil
}

func (c *Client) Account() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account
}

// RegisterAppInfo identifies the plugin on every request sent to Stripe.
func (c *Client) RegisterAppInfo(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("application name is empty")
	}
	info := &stripe.AppInfo{Name: name, Version: AppVersion, URL: AppURL}
	stripe.SetAppInfo(info)
	c.mu.Lock()
	c.appInfo = info
	c.mu.Unlock()
	return nil
}

func (c *Client) AppInfo() *stripe.AppInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.appInfo
}

func (c *Client) CreateRefund(ctx context.Context, req RefundRequest) (*stripe.Refund, error) {
	if req.Charge == "" && req.PaymentIntent == "" {
		return nil, errors.New("refund needs a charge or payment intent id")
	}
	if req.Account == "" {
		req.Account = c.Account()
	}
	return c.refunds.New(req.Params(ctx))
}

func IsSourceType(id, sourceType string) bool {
	return strings.HasPrefix(id, sourceType+"_")
}
