package remote

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

	syncerrors "github.com/nualapos/backend/internal/errors"
)

// RESTConfig holds remote service connection configuration.
type RESTConfig struct {
	BaseURL string // e.g. "https://api.nualapos.app/v1"
	APIKey  string
	Timeout time.Duration // zero means 30s
}

// RESTClient implements Client against a JSON-over-HTTP CRUD service.
type RESTClient struct {
	config     *RESTConfig
	httpClient *http.Client
}

// NewRESTClient creates a RESTClient.
func NewRESTClient(config *RESTConfig) *RESTClient {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &RESTClient{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
	}
}

// Insert implements Client.
func (c *RESTClient) Insert(ctx context.Context, table string, rec Record) (Record, error) {
	return c.doRecord(ctx, http.MethodPost, c.tableURL(table), rec)
}

// InsertBatch implements Client.
func (c *RESTClient) InsertBatch(ctx context.Context, table string, recs []Record) error {
	_, err := c.do(ctx, http.MethodPost, c.tableURL(table)+"/batch", recs)
	return err
}

// Update implements Client.
func (c *RESTClient) Update(ctx context.Context, table, id string, rec Record) (Record, error) {
	return c.doRecord(ctx, http.MethodPatch, c.rowURL(table, id), rec)
}

// Delete implements Client.
func (c *RESTClient) Delete(ctx context.Context, table, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.rowURL(table, id), nil)
	return err
}

// Select implements Client.
func (c *RESTClient) Select(ctx context.Context, table string, filter map[string]string) ([]Record, error) {
	u := c.tableURL(table)
	if len(filter) > 0 {
		q := url.Values{}
		for k, v := range filter {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var recs []Record
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, &Error{
			Kind:    syncerrors.KindUnknown,
			Message: fmt.Sprintf("malformed response from %s: %v", table, err),
		}
	}
	return recs, nil
}

func (c *RESTClient) tableURL(table string) string {
	return strings.TrimSuffix(c.config.BaseURL, "/") + "/" + table
}

func (c *RESTClient) rowURL(table, id string) string {
	return c.tableURL(table) + "/" + url.PathEscape(id)
}

func (c *RESTClient) doRecord(ctx context.Context, method, u string, rec Record) (Record, error) {
	body, err := c.do(ctx, method, u, rec)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return rec, nil
	}

	var stored Record
	if err := json.Unmarshal(body, &stored); err != nil {
		// The write went through; fall back to the payload we sent.
		return rec, nil
	}
	return stored, nil
}

// do issues one request and maps failures onto the typed error taxonomy.
func (c *RESTClient) do(ctx context.Context, method, u string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Kind: syncerrors.KindUnknown, Message: err.Error()}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, &Error{Kind: syncerrors.KindUnknown, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport-level failures (DNS, refused, timeout) are network kind.
		return nil, &Error{Kind: syncerrors.KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: syncerrors.KindNetwork, Message: err.Error()}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(resp.StatusCode, body)
}

// statusError maps an HTTP error response to a typed Error. The service's
// error body is `{"code": "...", "message": "..."}` when present.
func statusError(status int, body []byte) *Error {
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &parsed)
	if parsed.Message == "" {
		parsed.Message = http.StatusText(status)
	}

	var kind syncerrors.Kind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = syncerrors.KindAuth
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusConflict:
		kind = syncerrors.KindValidation
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		kind = syncerrors.KindNetwork
	case status == http.StatusInsufficientStorage || status >= 500:
		kind = syncerrors.KindStorage
	default:
		kind = syncerrors.KindUnknown
	}

	return &Error{
		Kind:    kind,
		Code:    parsed.Code,
		Message: fmt.Sprintf("%s (HTTP %d)", parsed.Message, status),
	}
}
