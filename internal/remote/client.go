// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	"github.com/atmyapp/ama/pkg/amadef"
)

const (
	// DefaultBaseURL targets the hosted platform. 'ama use' normally
	// overrides it with the project URL from the stored session.
	DefaultBaseURL = "https://api.atmyapp.com"

	// HeaderRequestID correlates one CLI request across platform logs.
	HeaderRequestID = "X-Ama-Request-Id"

	// HeaderMinCli is set by the platform to advertise the oldest CLI
	// version it still accepts.
	HeaderMinCli = "X-Ama-Min-Cli"

	definitionsPath = "/api/v1/definitions"
	filesPath       = "/api/v1/files"
	snapshotPath    = "/api/v1/snapshot"

	// maxErrorBodyBytes bounds how much of an error response body is read
	// back into error messages.
	maxErrorBodyBytes = 8 << 10
)

// ErrUnauthorized reports a request the platform rejected for missing or
// stale credentials.
var ErrUnauthorized = errors.New("platform rejected credentials")

type (
	// Client talks to the AtMyApp platform API for one project.
	Client struct {
		httpClient *http.Client
		baseURL    string
		token      string
		userAgent  string
		cliVersion string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// MinCliError reports that the platform requires a newer CLI build
	// than the one making the request.
	MinCliError struct {
		Current  string
		Required string
	}
)

// Error formats the version mismatch as a human-readable message.
func (e *MinCliError) Error() string {
	return fmt.Sprintf("platform requires CLI %s or newer, this build is %s", e.Required, e.Current)
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy
// configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(a *Client) {
		a.httpClient = c
	}
}

// WithBaseURL points the client at a project API endpoint, primarily the
// URL stored by 'ama use'.
func WithBaseURL(base string) ClientOption {
	return func(a *Client) {
		a.baseURL = strings.TrimRight(base, "/")
	}
}

// WithToken sets the project access token sent as a bearer credential.
func WithToken(token string) ClientOption {
	return func(a *Client) {
		a.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(a *Client) {
		a.userAgent = ua
	}
}

// WithCLIVersion sets the build version checked against HeaderMinCli.
func WithCLIVersion(v string) ClientOption {
	return func(a *Client) {
		a.cliVersion = v
	}
}

// NewClient creates a Client with sensible defaults.
// Defaults: baseURL=DefaultBaseURL, userAgent="ama/dev", cliVersion="dev",
// httpClient=http.DefaultClient, no token.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  "ama/dev",
		cliVersion: "dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PushDefinitions uploads the assembled document. A nil error means the
// platform accepted it; every failure mode, transport errors included,
// comes back as an error for the caller to report rather than a panic.
func (c *Client) PushDefinitions(ctx context.Context, doc *amadef.OutputDefinition) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding definitions: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.baseURL+definitionsPath,
		"application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("pushing definitions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if err := c.checkMinCli(resp); err != nil {
		return err
	}
	return checkStatus(resp, "pushing definitions")
}

// UploadFile sends one local file to platform storage under remotePath.
func (c *Client) UploadFile(ctx context.Context, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }() // read-only file handle

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("path", remotePath); err != nil {
		return fmt.Errorf("encoding upload form: %w", err)
	}
	part, err := form.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return fmt.Errorf("encoding upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("encoding upload form: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.baseURL+filesPath,
		form.FormDataContentType(), &buf)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", localPath, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if err := c.checkMinCli(resp); err != nil {
		return err
	}
	return checkStatus(resp, fmt.Sprintf("uploading %s", localPath))
}

// Snapshot streams the current content snapshot archive. The caller is
// responsible for closing the returned reader.
func (c *Client) Snapshot(ctx context.Context) (io.ReadCloser, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.baseURL+snapshotPath, "", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("requesting snapshot: %w", err)
	}

	if err := c.checkMinCli(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	if err := checkStatus(resp, "requesting snapshot"); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// DownloadSnapshot fetches the snapshot archive and unpacks it into dir.
// The archive is spooled to a temporary file because zip extraction needs
// random access.
func (c *Client) DownloadSnapshot(ctx context.Context, dir string) error {
	body, err := c.Snapshot(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }() // read-only response body

	tmp, err := os.CreateTemp("", "ama-snapshot-*.zip")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, copyErr := io.Copy(tmp, body)
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return fmt.Errorf("writing temp archive: %w", copyErr)
	}

	return Unpack(tmp.Name(), dir)
}

// doRequest builds and executes a request carrying the headers every
// platform call shares.
func (c *Client) doRequest(ctx context.Context, method, reqURL, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// checkMinCli enforces the minimum CLI version advertised in the response
// headers. Development builds and malformed header values skip the gate.
func (c *Client) checkMinCli(resp *http.Response) error {
	required := resp.Header.Get(HeaderMinCli)
	if required == "" {
		return nil
	}
	requiredNorm, ok := normalizeVersion(required)
	if !ok {
		return nil
	}
	currentNorm, ok := normalizeVersion(c.cliVersion)
	if !ok {
		return nil
	}
	if semver.Compare(currentNorm, requiredNorm) < 0 {
		return &MinCliError{Current: c.cliVersion, Required: required}
	}
	return nil
}

// checkStatus maps non-2xx responses to errors, reading a bounded body
// excerpt for diagnostics.
func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	excerpt := strings.TrimSpace(string(body))
	if excerpt == "" {
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}
	return fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, excerpt)
}

// normalizeVersion adds the v prefix the semver package expects and rejects
// strings that still do not parse.
func normalizeVersion(v string) (string, bool) {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", false
	}
	return v, true
}
