// Package client sends typed endpoint requests to a homeserver.
//
// A Client holds the base URL, the transport, the credential and the
// versions negotiated with the server. Endpoints stay generic values from
// the ruwuma package; Send resolves the path for the client's current
// versions, builds the wire request, performs it and decodes the answer:
//
//	c, err := client.New("https://matrix.example.org")
//	if err != nil { ... }
//	c = c.WithCredential(ruwuma.SendIfRequired(token))
//	if _, err := c.DiscoverVersions(ctx); err != nil { ... }
//	res, err := client.Send(ctx, c, profile.GetProfile, &profile.GetProfileRequest{UserID: "@alice:example.org"})
//
// Protocol errors are returned as *ruwuma.Error and can be inspected with
// errors.As.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/tirr-c/ruwuma"
)

// maxVersionsBody bounds the versions document read from the server.
const maxVersionsBody = 1 << 20

// Client performs endpoint requests against one homeserver.
type Client struct {
	baseURL    string
	httpClient *http.Client
	credential ruwuma.Credential
	logger     *slog.Logger

	mu        sync.RWMutex
	supported ruwuma.SupportedVersions

	warned sync.Map // endpoint name -> struct{}
}

// New creates a client for the homeserver at baseURL. Until versions are
// configured or discovered, only endpoints with an unstable path or a
// 1.0 path resolve.
func New(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("client: base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("client: base URL %q must be http or https", baseURL)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		credential: ruwuma.NoAccessToken,
		supported:  ruwuma.Supported(ruwuma.V(1, 0)),
	}, nil
}

// WithHTTPClient sets the transport. The default is http.DefaultClient.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithCredential sets the access token holder used for every request.
func (c *Client) WithCredential(cred ruwuma.Credential) *Client {
	if cred == nil {
		cred = ruwuma.NoAccessToken
	}
	c.credential = cred
	return c
}

// WithSupportedVersions replaces the versions used to resolve paths.
func (c *Client) WithSupportedVersions(s ruwuma.SupportedVersions) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supported = s
	return c
}

// WithLogger sets the logger for deprecation warnings.
// If not set, slog.Default() is used.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

func (c *Client) getLogger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// BaseURL returns the homeserver URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SupportedVersions returns the versions currently used to resolve paths.
func (c *Client) SupportedVersions() ruwuma.SupportedVersions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.supported
}

// DiscoverVersions asks the server which versions it supports and uses the
// answer for subsequent requests. Whether unstable paths are allowed is
// kept from the current configuration.
func (c *Client) DiscoverVersions(ctx context.Context) (*ruwuma.VersionsResponse, error) {
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ruwuma.VersionsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("client: versions: %w", err)
	}
	resp, err := c.httpClient.Do(hr)
	if err != nil {
		return nil, fmt.Errorf("client: versions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVersionsBody))
	if err != nil {
		return nil, fmt.Errorf("client: versions: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: versions: unexpected status %d", resp.StatusCode)
	}
	versions, err := ruwuma.ParseVersionsResponse(body)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	c.mu.Lock()
	c.supported = versions.Supported(c.supported.AllowUnstable)
	supported := c.supported
	c.mu.Unlock()

	c.getLogger().DebugContext(ctx, "discovered server versions",
		slog.String("base_url", c.baseURL),
		slog.Int("versions", len(supported.Versions)),
		slog.Bool("allow_unstable", supported.AllowUnstable))
	return versions, nil
}

// Send performs req against endpoint and decodes the response.
func Send[Req, Res any](ctx context.Context, c *Client, endpoint *ruwuma.Endpoint[Req, Res], req *Req) (*Res, error) {
	supported := c.SupportedVersions()
	c.warnDeprecated(ctx, endpoint, supported)

	hr, err := endpoint.Build(req, c.baseURL, c.credential, supported)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(hr.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s: %s %s: %w", endpoint.Name(), hr.Method, hr.URL.Path, err)
	}
	return endpoint.ReadResponse(resp)
}

// Do sends a request for any endpoint from loosely typed arguments and
// returns the raw success body. Error responses are decoded into *ruwuma.Error.
func (c *Client) Do(ctx context.Context, d ruwuma.Descriptor, args url.Values) ([]byte, error) {
	supported := c.SupportedVersions()
	c.warnDeprecated(ctx, d, supported)

	hr, err := d.BuildFromArgs(args, c.baseURL, c.credential, supported)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(hr.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s: %s %s: %w", d.Name(), hr.Method, hr.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", d.Name(), ruwuma.ErrBodyDecoding, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ruwuma.DecodeError(resp.StatusCode, body)
	}
	return body, nil
}

// warnDeprecated logs once per endpoint when the resolved path is deprecated.
func (c *Client) warnDeprecated(ctx context.Context, d ruwuma.Descriptor, supported ruwuma.SupportedVersions) {
	res, err := d.Metadata().Resolve(supported)
	if err != nil || !res.Deprecated {
		return
	}
	if _, seen := c.warned.LoadOrStore(d.Name(), struct{}{}); seen {
		return
	}
	attrs := []any{
		slog.String("endpoint", d.Name()),
		slog.String("path", res.Path.String()),
	}
	if v, ok := d.Metadata().DeprecatedIn(); ok {
		attrs = append(attrs, slog.String("deprecated_in", v.String()))
	}
	c.getLogger().WarnContext(ctx, "using deprecated endpoint", attrs...)
}
