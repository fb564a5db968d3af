// Package client talks to the estate-market API and turns its envelopes
// back into typed values and domain errors.
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
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"estate-market/internal/domain"
)

// UpstreamError is a failure that never produced a usable envelope: the
// network failed, or the server answered with something else.
type UpstreamError struct {
	Status int
	Msg    string
	Err    error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString("upstream")
	if e.Status != 0 {
		fmt.Fprintf(&b, " status %d", e.Status)
	}
	if e.Msg != "" {
		b.WriteString(": " + e.Msg)
	} else if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	base string
	hc   *http.Client
	log  *zap.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }
func WithToken(tok string) Option           { return func(c *Client) { c.token = tok } }
func WithLogger(l *zap.Logger) Option       { return func(c *Client) { c.log = l } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 60 * time.Second},
		log:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends in (when non-nil) as JSON and decodes the envelope's data
// into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Error(err))
		return &UpstreamError{Err: err}
	}
	defer res.Body.Close()
	c.log.Debug("request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", time.Since(start)))

	raw, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return &UpstreamError{Status: res.StatusCode, Err: err}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Code == 0 {
		return &UpstreamError{Status: res.StatusCode, Msg: snippet(raw)}
	}
	if !env.Success {
		return decodeError(env)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &UpstreamError{Status: res.StatusCode, Msg: "unexpected response data", Err: err}
	}
	return nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty response"
	}
	return s
}

// decodeError maps a failure envelope onto the domain taxonomy. A
// validation message arrives as "field: msg" with the field repeated in data.
func decodeError(env envelope) error {
	switch env.Code {
	case http.StatusBadRequest:
		var fd struct {
			Field string `json:"field"`
		}
		_ = json.Unmarshal(env.Data, &fd)
		msg := env.Msg
		if fd.Field != "" {
			msg = strings.TrimPrefix(msg, fd.Field+": ")
		}
		return &domain.ValidationError{Field: fd.Field, Msg: msg}
	case http.StatusUnauthorized:
		return wrap(domain.ErrUnauthorized, env.Msg)
	case http.StatusForbidden:
		return wrap(domain.ErrForbidden, env.Msg)
	case http.StatusNotFound:
		return wrap(domain.ErrNotFound, env.Msg)
	case http.StatusConflict:
		return wrap(domain.ErrConflict, env.Msg)
	}
	return &UpstreamError{Status: env.Code, Msg: env.Msg}
}

// wrap keeps the server's message while making errors.Is work.
func wrap(sentinel error, msg string) error {
	if msg == "" || msg == sentinel.Error() {
		return sentinel
	}
	return &serverError{sentinel: sentinel, msg: msg}
}

type serverError struct {
	sentinel error
	msg      string
}

func (e *serverError) Error() string { return e.msg }
func (e *serverError) Unwrap() error { return e.sentinel }

// IsRetryable reports whether err is a transport or server-side failure the
// user may simply retry.
func IsRetryable(err error) bool {
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		return false
	}
	return ue.Status == 0 || ue.Status >= http.StatusInternalServerError || ue.Status == http.StatusTooManyRequests
}
