// Package client implements the query client for the Nexus Mods v1
// REST API. A [Client] turns a [QuerySpec] into a single HTTP request
// and classifies the result into a tagged [Outcome]; transport errors
// never escape [Client.Query] as Go errors.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nexfetch/nexfetch/client/download"
	"github.com/nexfetch/nexfetch/client/throttle"
)

// maxErrBodySize caps the amount of response body captured for a
// non-2xx outcome. This prevents unbounded memory usage when a large
// response arrives with a wrong status.
const maxErrBodySize = 4 << 10 // 4KB

// defaultTimeout bounds every API query. One consistent value for all
// calls; override with [WithTimeout].
const defaultTimeout = 5 * time.Second

// maxRedirects is the redirect-chain limit before a query classifies
// as the TooManyRedirects failure.
const maxRedirects = 10

// Client wraps the std-lib *http.Client. It owns no per-call state:
// only the base URL, the default transport chain, and its logger
// survive between queries.
type Client struct {
	c       *http.Client
	dl      *http.Client
	baseURL string
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Build constructs a Client from functional options.
func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		c:       &http.Client{},
		baseURL: DefaultBaseURL,
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer(""),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.client != nil {
		client.c = opts.client
	}
	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.baseURL != "" {
		client.baseURL = opts.baseURL
	}

	switch {
	case opts.timeout != nil:
		client.c.Timeout = *opts.timeout
	case client.c.Timeout == 0:
		client.c.Timeout = defaultTimeout
	}

	client.c.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errTooManyRedirects
		}
		return nil
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	// Downloads stream through the same transport chain but without the
	// overall query timeout, which would cut long transfers short. The
	// body read is still cancellable through the request context.
	client.dl = &http.Client{
		Transport:     transport,
		CheckRedirect: client.c.CheckRedirect,
	}

	return client, nil
}

// Query dispatches a single request described by spec and classifies
// the result. The only error returned is a configuration error raised
// before any network I/O; every transport failure resolves into the
// outcome instead.
func (c *Client) Query(ctx context.Context, spec QuerySpec) (Outcome, error) {
	if err := spec.validate(); err != nil {
		return Outcome{}, err
	}

	reqURL, ok := spec.resolveURL(c.baseURL)
	if !ok {
		return Outcome{Kind: KindNetworkError, Failure: FailureMissingURL}, nil
	}

	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := c.tracer.Start(ctx, "client.query")
	span.SetAttributes(attribute.String("path", spec.Path))
	defer span.End()

	qid := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		c.logger.Error("building request", "query", qid, "url", reqURL, "error", err)
		return Outcome{Kind: KindNetworkError, Failure: FailureMissingURL, cause: err}, nil
	}

	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("query dispatched", "query", qid, "method", method, "url", reqURL)

	resp, err := c.c.Do(req)
	if err != nil {
		failure := classify(err)
		c.logger.Warn("query failed", "query", qid, "url", reqURL, "failure", failure.String(), "error", err)
		return Outcome{Kind: KindNetworkError, Failure: failure, cause: err}, nil
	}
	defer func() {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			c.logger.Error("failed to discard unused body", "query", qid, "error", err)
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "query", qid, "error", err)
		}
	}()

	span.SetAttributes(attribute.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}

		c.logger.Warn("query returned error status", "query", qid, "url", reqURL, "status", resp.StatusCode)

		return Outcome{Kind: KindHTTPError, StatusCode: resp.StatusCode, Body: b}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		failure := classify(err)
		c.logger.Warn("reading response body", "query", qid, "url", reqURL, "failure", failure.String(), "error", err)
		return Outcome{Kind: KindNetworkError, Failure: failure, cause: err}, nil
	}

	c.logger.Debug("query completed", "query", qid, "status", resp.StatusCode, "bytes", len(body))

	return Outcome{Kind: KindSuccess, StatusCode: resp.StatusCode, Body: body}, nil
}

// Download issues a GET for rawURL and streams the body into dir,
// returning the path of the written file. The file name comes from
// the URL per [download.ResolveName], falling back to the full URL
// string. Transfer failures after the first byte leave the partial
// file in place; see the download package for the chunking contract.
func (c *Client) Download(ctx context.Context, rawURL, dir string, optFns ...download.Option) (string, error) {
	if rawURL == "" {
		return "", errors.New("source url must not be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("instantiating download request: %w", err)
	}

	resp, err := c.dl.Do(req)
	if err != nil {
		return "", &TransportError{Failure: classify(err), Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close download body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, rerr := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if rerr != nil {
			b = []byte("unable to read body")
		}

		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(b), Err: ErrUnexpectedStatusCode}
	}

	task := download.Task{SourceURL: rawURL, Dir: dir}

	return download.Handle(ctx, resp.Body, resp.ContentLength, task, c.logger, optFns...)
}

// DownloadAsync starts Download in a managed goroutine. Use
// [download.WithBatch] on the first call to bound concurrency, then
// [download.Result.Add] for the rest of the batch.
func (c *Client) DownloadAsync(ctx context.Context, rawURL, dir string, optFns ...download.Option) *download.Result {
	return download.Async(ctx, c, rawURL, dir, optFns...)
}

// userAgent is an http.RoundTripper attaching a persistent User-Agent
// header to outbound requests.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}
