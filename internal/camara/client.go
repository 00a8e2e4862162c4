package camara

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"deputados/internal/core"
	"deputados/internal/log"
)

// DefaultBaseURL is the Câmara dos Deputados open-data API.
const DefaultBaseURL = "https://dadosabertos.camara.leg.br/api/v2"

const maxBodyBytes = 16 << 20

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

// Ensure interface conformance
var _ Source = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the pooled HTTP client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.WithComponent(log.ComponentCamara)
		}
	}
}

// New creates a client for the API rooted at baseURL (DefaultBaseURL when
// empty). timeout bounds each upstream request.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: must be absolute http(s)", baseURL)
	}

	c := &Client{
		httpClient: newHTTPClientWithPooling(timeout),
		baseURL:    baseURL,
		logger:     log.New(log.DefaultConfig()).WithComponent(log.ComponentCamara),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newHTTPClientWithPooling creates an HTTP client tuned for a single upstream
// host: the monthly fan-out opens up to twelve concurrent requests.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 16,
		MaxConnsPerHost:     32,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Raw performs req and returns the upstream body verbatim. Transport failures
// are KindNetwork errors, non-2xx answers are KindUpstreamStatus.
func (c *Client) Raw(ctx context.Context, req Request) ([]byte, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, core.NetworkError(req.Op, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NetworkError(req.Op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		c.logger.WarnContext(ctx, "Upstream returned non-success status",
			log.FieldOperation, req.Op,
			log.FieldUpstreamURL, target,
			log.FieldUpstreamCode, resp.StatusCode)
		return nil, core.UpstreamStatusError(req.Op, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, core.NetworkError(req.Op, fmt.Errorf("read body: %w", err))
	}

	c.logger.DebugContext(ctx, "Upstream request completed",
		log.FieldOperation, req.Op,
		log.FieldUpstreamURL, target,
		log.FieldDuration, time.Since(start).Milliseconds(),
		"bytes", len(body))
	return body, nil
}

func (c *Client) SearchDeputies(ctx context.Context, name string) ([]core.DeputySummary, error) {
	req := SearchDeputiesRequest(name)
	body, err := c.Raw(ctx, req)
	if err != nil {
		return nil, err
	}
	return DecodeList[core.DeputySummary](req.Op, body)
}

func (c *Client) ListDeputies(ctx context.Context) ([]core.DeputySummary, error) {
	return c.SearchDeputies(ctx, "")
}

func (c *Client) GetDeputy(ctx context.Context, id int) (core.DeputyDetail, error) {
	req, err := DeputyRequest(id)
	if err != nil {
		return core.DeputyDetail{}, err
	}
	body, err := c.Raw(ctx, req)
	if err != nil {
		return core.DeputyDetail{}, err
	}
	return DecodeOne[core.DeputyDetail](req.Op, body)
}

func (c *Client) ListExpenses(ctx context.Context, deputyID, year, month int) ([]core.Expense, error) {
	req, err := ExpensesRequest(deputyID, year, month)
	if err != nil {
		return nil, err
	}
	body, err := c.Raw(ctx, req)
	if err != nil {
		return nil, err
	}
	return DecodeList[core.Expense](req.Op, body)
}

func (c *Client) ListVotes(ctx context.Context) ([]core.Vote, error) {
	req := VotesRequest()
	body, err := c.Raw(ctx, req)
	if err != nil {
		return nil, err
	}
	return DecodeList[core.Vote](req.Op, body)
}

type rawEnvelope struct {
	Data json.RawMessage `json:"dados"`
}

// DecodeList unwraps a {"dados": [...]} body. An absent or null dados field
// yields an empty list.
func DecodeList[T any](op string, body []byte) ([]T, error) {
	var env rawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, core.DecodeError(op, err)
	}
	out := make([]T, 0)
	if absent(env.Data) {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, core.DecodeError(op, err)
	}
	return out, nil
}

// DecodeOne unwraps a {"dados": {...}} body; dados is required.
func DecodeOne[T any](op string, body []byte) (T, error) {
	var zero T
	var env rawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, core.DecodeError(op, err)
	}
	if absent(env.Data) {
		return zero, core.DecodeError(op, core.ErrMissingEnvelope)
	}
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return zero, core.DecodeError(op, err)
	}
	return out, nil
}

func absent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// IsTimeout reports whether err came from an expired deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
