package clients

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shoplit/internal/domain"

	"github.com/sirupsen/logrus"
)

var _ domain.PaymentGateway = (*PaystackClient)(nil)

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

// PaystackClient talks to the Paystack transaction API. Every call is made
// exactly once; retries are left to the caller.
type PaystackClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
	log       *logrus.Logger
}

func NewPaystackClient(baseURL, secretKey string, timeout time.Duration, logger *logrus.Logger) *PaystackClient {
	return &PaystackClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client: &http.Client{
			Timeout: timeout,
		},
		log: logger,
	}
}

func (c *PaystackClient) InitializeTransaction(ctx context.Context, in domain.InitializeTransactionRequest) (*domain.InitializeTransactionResult, error) {
	payload := map[string]interface{}{
		"email":  in.Email,
		"amount": in.AmountMinor,
	}
	if in.Reference != "" {
		payload["reference"] = in.Reference
	}
	if in.CallbackURL != "" {
		payload["callback_url"] = in.CallbackURL
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initialize request: %w", err)
	}

	c.log.Infof("PaymentGateway: Initializing transaction %s for %d minor units", in.Reference, in.AmountMinor)
	env, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	res := &domain.InitializeTransactionResult{Status: env.Status, Message: env.Message}
	if !env.Status {
		c.log.Warnf("PaymentGateway: Initialize %s declined: %s", in.Reference, env.Message)
		return res, nil
	}
	var data paystackInitializeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		c.log.Errorf("PaymentGateway: Failed to decode initialize data for %s: %v", in.Reference, err)
		return nil, fmt.Errorf("failed to decode initialize data: %w", err)
	}
	res.Reference = data.Reference
	res.AuthorizationURL = data.AuthorizationURL
	res.AccessCode = data.AccessCode
	return res, nil
}

func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (*domain.VerifyTransactionResult, error) {
	c.log.Infof("PaymentGateway: Verifying transaction %s", reference)
	env, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}

	res := &domain.VerifyTransactionResult{Status: env.Status, Message: env.Message, Reference: reference}
	if !env.Status || len(env.Data) == 0 || string(env.Data) == "null" {
		c.log.Warnf("PaymentGateway: Verify %s returned status=%t: %s", reference, env.Status, env.Message)
		return res, nil
	}
	var data paystackVerifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		c.log.Errorf("PaymentGateway: Failed to decode verify data for %s: %v", reference, err)
		return nil, fmt.Errorf("failed to decode verify data: %w", err)
	}
	if data.Reference != "" {
		res.Reference = data.Reference
	}
	res.TransactionStatus = data.Status
	res.AmountMinor = data.Amount
	return res, nil
}

// do sends one request. Connection failures and 5xx answers wrap
// ErrGatewayUnavailable; any other answer is decoded as an envelope.
func (c *PaystackClient) do(ctx context.Context, method, path string, body []byte) (*paystackEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Errorf("PaymentGateway: %s %s failed: %v", method, path, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		c.log.Errorf("PaymentGateway: %s %s answered with status %d", method, path, resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var env paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.log.Errorf("PaymentGateway: Failed to decode %s %s response (status %d): %v", method, path, resp.StatusCode, err)
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return &env, nil
}

// VerifyPaystackSignature checks the x-paystack-signature header, an
// HMAC-SHA512 of the raw body keyed by the secret key.
func VerifyPaystackSignature(secretKey string, body []byte, signature string) bool {
	if secretKey == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
