package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog"

	"github.com/athifer/biodsjobs/internal/models"
)

const (
	defaultTimeout      = 25 * time.Second
	defaultMaxBodyBytes = 5 << 20
)

// Request describes one outbound call.
type Request struct {
	URL        string
	Method     string
	Body       []byte
	Headers    map[string]string
	NoRedirect bool
}

// Options configures a Client.
type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	Limiter      Limiter
	Rotator      *Rotator
	UserAgents   []string
	Logger       zerolog.Logger
}

// Client performs rate-limited requests with a Chrome TLS fingerprint.
// Ordinary HTTP error statuses are reported in the result; only transport
// failures are returned as errors.
type Client struct {
	timeout    time.Duration
	maxBody    int64
	limiter    Limiter
	rotator    *Rotator
	userAgents []string
	logger     zerolog.Logger

	mu      sync.Mutex
	rand    *rand.Rand
	clients map[clientKey]tls_client.HttpClient
}

type clientKey struct {
	proxy    string
	redirect bool
}

func NewClient(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Limiter == nil {
		opts.Limiter = NewLimiter(0, 1)
	}
	agents := opts.UserAgents
	if len(agents) == 0 {
		agents = userAgents
	}

	c := &Client{
		timeout:    opts.Timeout,
		maxBody:    opts.MaxBodyBytes,
		limiter:    opts.Limiter,
		rotator:    opts.Rotator,
		userAgents: append([]string{}, agents...),
		logger:     opts.Logger,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		clients:    map[clientKey]tls_client.HttpClient{},
	}

	// Direct client up front; tls-client option errors fail NewClient.
	if _, err := c.httpClient("", true); err != nil {
		return nil, err
	}
	return c, nil
}

// Fetch waits on the shared limiter and performs the request.
func (c *Client) Fetch(ctx context.Context, req Request) (models.FetchResult, error) {
	result := models.FetchResult{RequestURL: req.URL, Status: models.StatusNetworkError}
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			err = fmt.Errorf("%w: %v", ErrRateBudget, err)
		}
		return result, &Error{URL: req.URL, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = fhttp.MethodGet
	}
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := fhttp.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return result, &Error{URL: req.URL, Err: err}
	}
	c.applyHeaders(httpReq, req.Headers)

	proxy := c.nextProxy()
	client, err := c.httpClient(proxy, !req.NoRedirect)
	if err != nil {
		return result, &Error{URL: req.URL, Err: err}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		result.Elapsed = time.Since(start)
		return result, &Error{URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	if proxy != "" && c.rotator != nil {
		if u, perr := url.Parse(proxy); perr == nil {
			c.rotator.Report(u, resp.StatusCode)
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		result.Elapsed = time.Since(start)
		return result, &Error{URL: req.URL, Err: err}
	}

	result.StatusCode = resp.StatusCode
	result.Status = models.ClassifyStatus(resp.StatusCode)
	result.ContentType = resp.Header.Get("Content-Type")
	result.Body = data
	result.FinalURL = req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		result.FinalURL = resp.Request.URL.String()
	}
	result.Elapsed = time.Since(start)

	c.logger.Debug().
		Str("method", method).
		Str("url", req.URL).
		Int("status", resp.StatusCode).
		Dur("elapsed", result.Elapsed).
		Msg("fetch")
	return result, nil
}

func (c *Client) applyHeaders(req *fhttp.Request, headers map[string]string) {
	defaults := map[string]string{
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7",
		"accept-language": "en-US,en;q=0.9",
		"user-agent":      c.randomUA(),
	}
	for key, value := range defaults {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

func (c *Client) nextProxy() string {
	if c.rotator == nil {
		return ""
	}
	proxy, err := c.rotator.Next()
	if err != nil {
		if errors.Is(err, ErrNoProxies) {
			c.logger.Debug().Msg("all proxies benched, using direct connection")
		}
		return ""
	}
	return proxy.String()
}

func (c *Client) httpClient(proxy string, redirect bool) (tls_client.HttpClient, error) {
	key := clientKey{proxy: proxy, redirect: redirect}

	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[key]; ok {
		return client, nil
	}

	// No cookie jar: clients are shared by every target of a run.
	options := []tls_client.HttpClientOption{
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithTimeoutSeconds(int(c.timeout / time.Second)),
	}
	if !redirect {
		options = append(options, tls_client.WithNotFollowRedirects())
	}
	if strings.TrimSpace(proxy) != "" {
		options = append(options, tls_client.WithProxyUrl(proxy))
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, err
	}
	c.clients[key] = client
	return client, nil
}

func (c *Client) randomUA() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.userAgents) == 0 {
		return ""
	}
	return c.userAgents[c.rand.Intn(len(c.userAgents))]
}
