// Package client holds the outbound HTTP clients for the inventory and
// notification peer services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catalog-service/internal/logger"
	"catalog-service/internal/metrics"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	DefaultConnectTimeout = 2000 * time.Millisecond
	DefaultReadTimeout    = 5000 * time.Millisecond

	requestIDHeader = "X-Request-ID"

	// maxErrorBody caps how much of a failed response body is kept.
	maxErrorBody = 4 << 10
)

// NewHTTPClient builds the http.Client shared by the peer clients. The
// connect timeout bounds dialing; the read timeout bounds the wait for
// response headers and, together with the connect timeout, the whole call.
func NewHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	transport.ResponseHeaderTimeout = readTimeout

	return &http.Client{
		Transport: transport,
		Timeout:   connectTimeout + readTimeout,
	}
}

// peer performs JSON calls against one base URL.
type peer struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func newPeer(name, baseURL string, httpClient *http.Client, log *zap.Logger) peer {
	if httpClient == nil {
		httpClient = NewHTTPClient(0, 0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return peer{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     log,
	}
}

// do sends a JSON request and returns the response with its body fully read.
// Transport failures come back as *TransportError; status classification is
// left to the caller.
func (p peer) do(ctx context.Context, operation, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode %s request: %w", p.name, err)
		}
		body = bytes.NewReader(data)
	}

	url := p.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build %s request: %w", p.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		req.Header.Set(requestIDHeader, reqID)
	}

	log := logger.FromContext(ctx, p.logger).With(zap.String("peer", p.name))
	log.Info("=> Req", zap.String("method", method), zap.String("url", url))

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		metrics.PeerRequestDuration.WithLabelValues(p.name, operation, "error").Observe(time.Since(start).Seconds())
		transportErr := classifyTransportError(err)
		log.Warn("<= Res failed", zap.String("url", url), zap.Error(err))
		return 0, nil, transportErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	metrics.PeerRequestDuration.WithLabelValues(p.name, operation, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		log.Warn("<= Res body read failed", zap.String("url", url), zap.Error(err))
		return resp.StatusCode, nil, classifyTransportError(err)
	}

	log.Info("<= Res Status", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	return resp.StatusCode, data, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func newStatusError(status int, body []byte) *StatusError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &StatusError{StatusCode: status, Body: string(body)}
}
