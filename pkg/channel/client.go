package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/config"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
)

var (
	errLoggerRequired = errors.New("channel logger is required")
	errDomainRequired = errors.New("channel store domain is required")
	errTokenRequired  = errors.New("channel access token is required")
)

// Credentials identify one store's channel admin API access. Domain and
// token live on the store row, not in env config.
type Credentials struct {
	Domain string
	Token  string
}

// Client calls the e-commerce channel admin REST API with centralized auth,
// retries, logging, and error mapping.
type Client struct {
	http   *http.Client
	cfg    config.ChannelConfig
	logger *logger.Logger
}

// NewClient initializes the channel API wrapper.
func NewClient(cfg config.ChannelConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		cfg:    cfg,
		logger: logg,
	}, nil
}

// Transaction is one money movement reported by the channel for an order.
type Transaction struct {
	ID      int64  `json:"id"`
	Kind    string `json:"kind"`
	Gateway string `json:"gateway"`
	Status  string `json:"status"`
	Amount  string `json:"amount"`
}

// GetOrderTransactions lists the channel-side transactions for an order.
func (c *Client) GetOrderTransactions(ctx context.Context, creds Credentials, orderID int64) ([]Transaction, error) {
	var out struct {
		Transactions []Transaction `json:"transactions"`
	}
	path := fmt.Sprintf("/orders/%d/transactions.json", orderID)
	if err := c.do(ctx, creds, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// GetProductImage returns the product's primary image URL, or empty when the
// product carries no images.
func (c *Client) GetProductImage(ctx context.Context, creds Credentials, productID int64) (string, error) {
	var out struct {
		Product struct {
			Image *struct {
				Src string `json:"src"`
			} `json:"image"`
		} `json:"product"`
	}
	path := fmt.Sprintf("/products/%d.json", productID)
	if err := c.do(ctx, creds, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	if out.Product.Image == nil {
		return "", nil
	}
	return out.Product.Image.Src, nil
}

// FulfillmentLineItem names one channel order line item covered by a fulfillment.
type FulfillmentLineItem struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// FulfillmentParams describes a fulfillment push for a forward shipment.
type FulfillmentParams struct {
	OrderID         int64
	TrackingNumber  string
	TrackingCompany string
	TrackingURL     string
	LineItems       []FulfillmentLineItem
}

// CreateFulfillment records a fulfillment against the channel order.
func (c *Client) CreateFulfillment(ctx context.Context, creds Credentials, params FulfillmentParams) error {
	body := map[string]any{
		"fulfillment": map[string]any{
			"tracking_number":  params.TrackingNumber,
			"tracking_company": params.TrackingCompany,
			"tracking_url":     params.TrackingURL,
			"notify_customer":  true,
			"line_items":       params.LineItems,
		},
	}
	path := fmt.Sprintf("/orders/%d/fulfillments.json", params.OrderID)
	return c.do(ctx, creds, http.MethodPost, path, body, nil)
}

func (c *Client) do(ctx context.Context, creds Credentials, method, path string, body any, out any) error {
	domain := strings.TrimSpace(creds.Domain)
	if domain == "" {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, errDomainRequired, "channel request failed")
	}
	token := strings.TrimSpace(creds.Token)
	if token == "" {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, errTokenRequired, "channel request failed")
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding channel request")
		}
		payload = encoded
	}

	url := fmt.Sprintf("https://%s/admin/api/%s%s", domain, c.cfg.APIVersion, path)
	c.log(ctx, "request", method, path, map[string]any{"domain": domain})

	backoff := retry.NewConstant(c.backoff())
	backoff = retry.WithMaxRetries(c.maxRetries(), backoff)

	var lastStatus int
	var respBody []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Channel-Access-Token", token)

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		lastStatus = resp.StatusCode
		respBody, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return retry.RetryableError(err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("channel responded %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("channel responded %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		c.log(ctx, "error", method, path, map[string]any{"domain": domain, "status": lastStatus, "error": err.Error()})
		return pkgerrors.Wrap(codeForStatus(lastStatus), err, fmt.Sprintf("channel %s %s failed", method, path))
	}

	c.log(ctx, "response", method, path, map[string]any{"domain": domain, "status": lastStatus})
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding channel response")
		}
	}
	return nil
}

func (c *Client) maxRetries() uint64 {
	if c.cfg.MaxAttempts <= 1 {
		return 0
	}
	return c.cfg.MaxAttempts - 1
}

func (c *Client) backoff() time.Duration {
	if c.cfg.Backoff <= 0 {
		return time.Second
	}
	return c.cfg.Backoff
}

func (c *Client) log(ctx context.Context, phase, method, path string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"method": method,
		"path":   path,
		"phase":  phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, "channel request failed", errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("channel %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
