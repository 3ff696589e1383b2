package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pot-code/lms-client/internal/domain"
	"github.com/pot-code/lms-client/internal/infrastructure/reqid"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

// Client typed REST client for the learning platform backend.
//
// Authentication is explicit per call: login exchanges credentials with
// Basic auth, every other authenticated endpoint takes the bearer token as
// an argument. There is no ambient default header.
type Client struct {
	base   string
	http   *http.Client
	logger *zap.Logger
	reqID  reqid.Generator
}

// NewClient create a backend client bound to baseURL
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger, gen reqid.Generator) *Client {
	return &Client{
		base:   baseURL,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
		reqID:  gen,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if id, err := c.reqID.Generate(); err == nil {
		req.Header.Set(headerRequestID, id)
	}
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, method, path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// do execute the request and map the outcome onto the client error
// taxonomy. A transport failure is a NetworkError, 401 an AuthError, any
// other non-2xx a ServerError carrying the server message when present.
func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logRequest(req, 0, start, err)
		return nil, &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		c.logRequest(req, resp.StatusCode, start, err)
		return nil, &domain.NetworkError{Err: err}
	}
	c.logRequest(req, resp.StatusCode, start, nil)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &domain.AuthError{Status: resp.StatusCode, Message: serverMessage(body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.ServerError{Status: resp.StatusCode, Message: serverMessage(body)}
	}
	return body, nil
}

func (c *Client) logRequest(req *http.Request, status int, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("http.request.method", req.Method),
		zap.String("url.path", req.URL.Path),
		zap.Int("http.response.status_code", status),
		zap.Duration("event.duration", time.Since(start)),
		zap.String("trace.id", req.Header.Get(headerRequestID)),
	}
	if err != nil {
		c.logger.Warn("backend request failed", append(fields, zap.Error(err))...)
		return
	}
	c.logger.Debug("backend request", fields...)
}

// serverMessage extract a human readable detail from an error body: a JSON
// `message` field when present, the raw text otherwise
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		return text
	}
	if json.Valid(body) {
		return ""
	}
	return string(body)
}

func decodeJSON(body []byte, target interface{}, what string) error {
	if err := json.Unmarshal(body, target); err != nil {
		return &domain.DataShapeError{Detail: fmt.Sprintf("decoding %s: %v", what, err)}
	}
	return nil
}
