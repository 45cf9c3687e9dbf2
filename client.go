// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Default client configuration values
const (
	DefaultAPIPrefix         = "/api/v2/cmdb"
	DefaultRequestTimeout    = 30 * time.Second
	DefaultVerifyCertificate = true
	DefaultPrettyPrintLogs   = false
)

// Limits for request/response handling and logging
const (
	MaxResponseSize       = 32 * 1024 * 1024
	MaxPathLength         = 1024
	MaxJSONSizeForLogging = 1 * 1024 * 1024
	MaxSensitiveFields    = 1000
)

// Logging message constants
const (
	JSONTooLargeMessage     = "[JSON TOO LARGE FOR LOGGING]"
	JSONTooManySensitiveMsg = "[JSON CONTAINS TOO MANY SENSITIVE FIELDS]"
)

// sensitiveFields are attribute names whose string values are redacted in logs
var sensitiveFields = []string{
	"password",
	"passwd",
	"psksecret",
	"secret",
	"token",
	"api-key",
	"private-key",
	"community",
}

var defaultRedactionPattern = regexp.MustCompile(
	`"(` + strings.Join(sensitiveFields, "|") + `)"\s*:\s*"[^"]*"`)

// Client talks to the configuration API of one appliance.
//
// A Client holds no remote state; each call performs exactly one HTTP
// request and never retries. It is safe for concurrent use.
type Client struct {
	// BaseURL is the scheme and host of the appliance, e.g. https://192.168.1.99
	BaseURL string

	// APIPrefix is prepended to every resource path
	APIPrefix string

	// VDOM is the default virtual domain, empty for none
	VDOM string

	// VerifyCertificate controls TLS certificate verification
	VerifyCertificate bool

	// RequestTimeout is the default per-request timeout
	RequestTimeout time.Duration

	token string // unexported for security
	tlsCA string

	httpClient *http.Client

	logger           Logger
	prettyPrintLogs  bool
	redactionPattern *regexp.Regexp
	serializeWrites  bool
	locks            pathLocks
}

// NewClient creates a new client for the appliance at baseURL.
//
// No connection is made until the first request.
//
// Example:
//
//	client, err := cmdb.NewClient("https://192.168.1.99",
//	    cmdb.Token(os.Getenv("CMDB_TOKEN")),
//	    cmdb.VDOM("root"),
//	    cmdb.VerifyCertificate(false))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := client.Get(ctx, "system/global")
func NewClient(baseURL string, opts ...func(*Client)) (*Client, error) {
	client := &Client{
		BaseURL:           strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIPrefix:         DefaultAPIPrefix,
		VerifyCertificate: DefaultVerifyCertificate,
		RequestTimeout:    DefaultRequestTimeout,
		logger:            &NoOpLogger{},
		prettyPrintLogs:   DefaultPrettyPrintLogs,
		redactionPattern:  defaultRedactionPattern,
	}

	for _, opt := range opts {
		opt(client)
	}

	if err := client.validateConfig(); err != nil {
		return nil, err
	}

	if client.httpClient == nil {
		hc, err := client.newHTTPClient()
		if err != nil {
			return nil, err
		}
		client.httpClient = hc
	}

	client.logger.Info(context.Background(), "CMDB client created",
		"base_url", client.BaseURL,
		"vdom", client.VDOM)

	return client, nil
}

// HasCredentials returns true if an API token is configured
func (c *Client) HasCredentials() bool {
	return c.token != ""
}

// validateConfig validates client configuration before first use
func (c *Client) validateConfig() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL scheme: %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got: %v", c.RequestTimeout)
	}

	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("API prefix must start with '/': %s", c.APIPrefix)
	}

	if u.Scheme == "https" && !c.VerifyCertificate {
		c.logger.Warn(context.Background(), "TLS certificate verification disabled",
			"base_url", c.BaseURL,
			"security_risk", "Man-in-the-Middle attacks possible",
			"recommendation", "Use only in testing environments")
	}
	if u.Scheme == "http" {
		c.logger.Warn(context.Background(), "Plain HTTP configured - connection is not encrypted",
			"base_url", c.BaseURL,
			"security_risk", "API token transmitted in clear text")
	}

	if c.tlsCA != "" {
		if _, err := os.Stat(c.tlsCA); err != nil {
			c.logger.Debug(context.Background(), "TLS CA validation failed",
				"path", c.tlsCA,
				"error", err.Error())
			return fmt.Errorf("TLS CA file not found: %s", filepath.Base(c.tlsCA))
		}
	}

	if !c.HasCredentials() {
		c.logger.Warn(context.Background(), "No API token configured",
			"base_url", c.BaseURL,
			"message", "appliance may reject requests")
	}

	return nil
}

func (c *Client) newHTTPClient() (*http.Client, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !c.VerifyCertificate, //nolint:gosec // explicit opt-out via VerifyCertificate(false)
	}
	if c.tlsCA != "" {
		pem, err := os.ReadFile(c.tlsCA)
		if err != nil {
			return nil, fmt.Errorf("failed to read TLS CA: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("TLS CA file contains no certificates: %s", filepath.Base(c.tlsCA))
		}
		tlsConfig.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	return &http.Client{Transport: transport}, nil
}

// Get performs a GET request for a resource path such as "router/bgp"
func (c *Client) Get(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, http.MethodGet, path, nil, mods...)
}

// Post creates an entry in a collection
func (c *Client) Post(ctx context.Context, path string, body Body, mods ...func(*Req)) (Res, error) {
	payload, err := body.Bytes()
	if err != nil {
		return Res{}, fmt.Errorf("post: %w", err)
	}
	return c.Do(ctx, http.MethodPost, path, payload, mods...)
}

// Put replaces a singleton or a collection entry
func (c *Client) Put(ctx context.Context, path string, body Body, mods ...func(*Req)) (Res, error) {
	payload, err := body.Bytes()
	if err != nil {
		return Res{}, fmt.Errorf("put: %w", err)
	}
	return c.Do(ctx, http.MethodPut, path, payload, mods...)
}

// Delete removes a collection entry
func (c *Client) Delete(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, mods...)
}

// Exists reports whether a resource path exists. A 404 is a normal false result.
func (c *Client) Exists(ctx context.Context, path string, mods ...func(*Req)) (bool, error) {
	_, err := c.Get(ctx, path, mods...)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Do performs a single request. Non-2xx responses and bodies reporting
// "status":"error" are returned as *RemoteError alongside the Res.
func (c *Client) Do(ctx context.Context, method, path string, payload []byte, mods ...func(*Req)) (Res, error) {
	op := strings.ToLower(method)

	if err := validatePath(path); err != nil {
		return Res{Errors: []ErrorModel{{Message: err.Error()}}}, fmt.Errorf("%s: %w", op, err)
	}
	if err := checkContextCancellation(ctx); err != nil {
		return Res{Errors: []ErrorModel{{Message: err.Error()}}}, err
	}

	req := &Req{Query: url.Values{}}
	if c.VDOM != "" {
		req.Query.Set("vdom", c.VDOM)
	}
	for _, mod := range mods {
		mod(req)
	}

	ctx, cancel := c.requestContext(ctx, req)
	defer cancel()

	endpoint := c.endpoint(path)
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return Res{Errors: []ErrorModel{{Message: err.Error()}}}, fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug(ctx, "CMDB request",
		"method", method,
		"path", path,
		"query", req.Query.Encode(),
		"request_id", requestID)
	if payload != nil {
		c.logger.Debug(ctx, "CMDB request body",
			"request_id", requestID,
			"body", c.prepareJSONForLogging(string(payload)))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error(ctx, "CMDB request failed",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err.Error())
		remoteErr := &RemoteError{
			Operation:   op,
			Method:      method,
			Path:        path,
			Message:     "request failed",
			InternalMsg: err.Error(),
			RequestID:   requestID,
			Errors:      []ErrorModel{{Message: err.Error()}},
			cause:       err,
		}
		return Res{RequestID: requestID, Errors: remoteErr.Errors}, remoteErr
	}
	defer resp.Body.Close() //nolint:errcheck // body fully read below

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return Res{StatusCode: resp.StatusCode, RequestID: requestID}, &RemoteError{
			Operation:   op,
			Method:      method,
			Path:        path,
			StatusCode:  resp.StatusCode,
			Message:     "failed to read response",
			InternalMsg: err.Error(),
			RequestID:   requestID,
			cause:       err,
		}
	}

	res := Res{
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
		Raw:        string(data),
	}

	c.logger.Debug(ctx, "CMDB response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
		"body", c.prepareJSONForLogging(res.Raw))

	if remoteErr := responseError(op, method, path, res); remoteErr != nil {
		res.Errors = remoteErr.Errors
		level := c.logger.Error
		if resp.StatusCode == http.StatusNotFound && method == http.MethodGet {
			level = c.logger.Debug
		}
		level(ctx, "CMDB request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"request_id", requestID,
			"error", remoteErr.Message)
		return res, remoteErr
	}

	res.OK = true
	return res, nil
}

// endpoint joins the base URL, API prefix and resource path
func (c *Client) endpoint(path string) string {
	prefix := strings.TrimRight(c.APIPrefix, "/")
	return c.BaseURL + prefix + "/" + strings.Trim(path, "/")
}

// requestContext applies the timeout priority model:
//  1. Request-specific timeout (req.Timeout > 0)
//  2. Existing context deadline
//  3. Client.RequestTimeout
func (c *Client) requestContext(ctx context.Context, req *Req) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		return context.WithTimeout(ctx, req.Timeout)
	}
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.RequestTimeout)
}

// responseError converts an unsuccessful response into a *RemoteError, or returns nil
func responseError(op, method, path string, res Res) *RemoteError {
	failed := res.StatusCode < 200 || res.StatusCode >= 300
	if !failed && res.Status() != "error" {
		return nil
	}

	code := int(res.GetValue("error").Int())
	cliError := strings.TrimSpace(res.GetValue("cli_error").String())

	message := cliError
	switch {
	case message != "":
	case code != 0:
		message = fmt.Sprintf("appliance error %d", code)
	case failed:
		message = http.StatusText(res.StatusCode)
	default:
		message = "appliance reported an error"
	}

	return &RemoteError{
		Operation:   op,
		Method:      method,
		Path:        path,
		StatusCode:  res.StatusCode,
		Message:     message,
		InternalMsg: truncate(res.Raw, 512),
		RequestID:   res.RequestID,
		Errors: []ErrorModel{{
			Code:    code,
			Message: message,
			Details: cliError,
		}},
	}
}

// prepareJSONForLogging limits, redacts and optionally pretty-prints a JSON
// document for debug logs
func (c *Client) prepareJSONForLogging(jsonStr string) string {
	if len(jsonStr) > MaxJSONSizeForLogging {
		return JSONTooLargeMessage
	}

	sensitiveCount := 0
	for _, field := range sensitiveFields {
		sensitiveCount += strings.Count(jsonStr, `"`+field+`"`)
	}
	if sensitiveCount > MaxSensitiveFields {
		c.logger.Warn(context.Background(), "Too many sensitive fields detected",
			"count", sensitiveCount,
			"max", MaxSensitiveFields)
		return JSONTooManySensitiveMsg
	}

	redacted := c.redactSensitiveData(jsonStr)

	if c.prettyPrintLogs && gjson.Valid(redacted) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(redacted), "", "  "); err == nil {
			return buf.String()
		}
	}

	return redacted
}

// redactSensitiveData replaces values of sensitive attributes with [REDACTED]
func (c *Client) redactSensitiveData(jsonStr string) string {
	if c.redactionPattern == nil {
		return jsonStr
	}
	return c.redactionPattern.ReplaceAllString(jsonStr, `"$1":"[REDACTED]"`)
}

// validatePath rejects empty, oversized or traversal paths before any request
func validatePath(path string) error {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if len(path) > MaxPathLength {
		return fmt.Errorf("path exceeds maximum length of %d characters: %s", MaxPathLength, truncate(path, 100))
	}
	if strings.IndexByte(path, 0) >= 0 {
		return fmt.Errorf("path contains null byte")
	}
	if strings.ContainsAny(path, "?#") {
		return fmt.Errorf("path must not contain a query or fragment: %s", truncate(path, 100))
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == ".." || segment == "." {
			return fmt.Errorf("path contains traversal segment %q", segment)
		}
	}
	return nil
}

// checkContextCancellation checks if context is canceled or deadline exceeded
func checkContextCancellation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// pathLocks hands out one mutex per resource path
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (p *pathLocks) get(path string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.locks == nil {
		p.locks = make(map[string]*sync.Mutex)
	}
	key := strings.Trim(path, "/")
	l, ok := p.locks[key]
	if !ok {
		l = &sync.Mutex{}
		p.locks[key] = l
	}
	return l
}
