package oracle

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

	pkgerrors "github.com/ktrudeau/giftnest-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://oracle.giftnest.dev/v1"
	defaultTimeout             = 10 * time.Second
	defaultMaxAttempts         = 3
	defaultBackoffBase         = 250 * time.Millisecond
	requestBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("oracle api key is required")

// Client calls the gift recommendation oracle over HTTP.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	maxAttempts int
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured oracle base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithMaxAttempts sets how many times a request is tried before giving up.
func WithMaxAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
	}
}

// NewClient builds the oracle client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:      trimmedKey,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		maxAttempts: defaultMaxAttempts,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.maxAttempts <= 0 {
		client.maxAttempts = defaultMaxAttempts
	}

	return client, nil
}

// RecommendRequest describes the recipient and occasion context sent to the
// oracle. PreviousGiftNames tells the oracle which gifts the recipient has
// already received so they are not suggested again.
type RecommendRequest struct {
	RecipientName       string   `json:"recipientName"`
	Relationship        string   `json:"relationship,omitempty"`
	Interests           []string `json:"interests,omitempty"`
	OccasionKind        string   `json:"occasionKind"`
	OccasionName        string   `json:"occasionName,omitempty"`
	BudgetMinCents      int64    `json:"budgetMinCents,omitempty"`
	BudgetMaxCents      int64    `json:"budgetMaxCents,omitempty"`
	ExcludeCategories   []string `json:"excludeCategories,omitempty"`
	PreferredCategories []string `json:"preferredCategories,omitempty"`
	PreviousGiftNames   []string `json:"previousGiftNames,omitempty"`
	Count               int      `json:"count,omitempty"`
}

// Candidate is a single raw suggestion as returned by the oracle. Fields are
// untrusted until normalized by the recommendations service. ID is the
// oracle-side marketplace identifier, opaque to this system.
type Candidate struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	PriceCents        int64    `json:"priceCents"`
	ImageURL          string   `json:"imageUrl"`
	PurchaseURL       string   `json:"purchaseUrl"`
	Confidence        float64  `json:"confidence"`
	Reasoning         string   `json:"reasoning"`
	Tags              []string `json:"tags"`
	Availability      string   `json:"availability"`
	EstimatedDelivery string   `json:"estimatedDelivery"`
}

// SearchMetadata describes how the oracle produced a response. It is
// decoded for wire completeness; nothing downstream depends on it.
type SearchMetadata struct {
	Provider     string `json:"provider"`
	QueryID      string `json:"queryId"`
	TotalResults int    `json:"totalResults"`
}

// MetadataBag flattens the oracle-sourced descriptive fields into the
// metadata map a selection carries through to the remote gift record.
// Absent fields are omitted so the bag stays optional end to end.
func (c Candidate) MetadataBag() map[string]any {
	bag := map[string]any{}
	if strings.TrimSpace(c.ID) != "" {
		bag["oracle_id"] = c.ID
	}
	if c.Confidence > 0 {
		bag["confidence"] = c.Confidence
	}
	if strings.TrimSpace(c.Reasoning) != "" {
		bag["reasoning"] = c.Reasoning
	}
	if len(c.Tags) > 0 {
		bag["tags"] = c.Tags
	}
	if strings.TrimSpace(c.Availability) != "" {
		bag["availability"] = c.Availability
	}
	if strings.TrimSpace(c.EstimatedDelivery) != "" {
		bag["estimated_delivery"] = c.EstimatedDelivery
	}
	if len(bag) == 0 {
		return nil
	}
	return bag
}

// Recommend requests gift candidates for the given context. Server errors and
// transport failures are retried with exponential backoff up to the configured
// attempt count.
func (c *Client) Recommend(ctx context.Context, req RecommendRequest) ([]Candidate, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "oracle client not configured")
	}
	if strings.TrimSpace(req.RecipientName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient name is required")
	}
	if strings.TrimSpace(req.OccasionKind) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occasion kind is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal recommend request")
	}

	var candidates []Candidate
	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(defaultBackoffBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, attemptErr := c.recommendOnce(ctx, payload)
		if attemptErr != nil {
			return attemptErr
		}
		candidates = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return candidates, nil
}

func (c *Client) recommendOnce(ctx context.Context, payload []byte) ([]Candidate, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("recommendations:generate"), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build recommend request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute recommend request"))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "recommend request failed")
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, retry.RetryableError(wrapped)
		}
		return nil, wrapped
	}

	var apiResp struct {
		Recommendations []Candidate    `json:"recommendations"`
		SearchMetadata  SearchMetadata `json:"searchMetadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode recommend response")
	}

	return apiResp.Recommendations, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
