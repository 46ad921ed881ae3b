// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/atmyapp/ama/pkg/amadef"
)

func testClient(srv *httptest.Server, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithToken("tok-123"),
		WithUserAgent("ama/test"),
		WithCLIVersion("1.2.3"),
	}
	return NewClient(append(base, opts...)...)
}

func TestPushDefinitions_SendsDocument(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotAgent, gotRequestID, gotContentType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get(HeaderRequestID)
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	doc := amadef.NewOutputDefinition()
	if err := testClient(srv).PushDefinitions(context.Background(), doc); err != nil {
		t.Fatalf("PushDefinitions() error = %v", err)
	}

	if gotPath != definitionsPath {
		t.Errorf("request path = %q, want %q", gotPath, definitionsPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotAgent != "ama/test" {
		t.Errorf("User-Agent = %q, want %q", gotAgent, "ama/test")
	}
	if _, err := uuid.Parse(gotRequestID); err != nil {
		t.Errorf("%s = %q, want a UUID", HeaderRequestID, gotRequestID)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody["description"] != amadef.DefaultDescription {
		t.Errorf("uploaded description = %v, want %q", gotBody["description"], amadef.DefaultDescription)
	}
}

func TestPushDefinitions_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "storage offline")
	}))
	defer srv.Close()

	err := testClient(srv).PushDefinitions(context.Background(), amadef.NewOutputDefinition())
	if err == nil {
		t.Fatal("PushDefinitions() error = nil, want server error")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "storage offline") {
		t.Errorf("error %q should carry status and body excerpt", err)
	}
}

func TestPushDefinitions_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := testClient(srv).PushDefinitions(context.Background(), amadef.NewOutputDefinition())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("PushDefinitions() error = %v, want ErrUnauthorized", err)
	}
}

func TestPushDefinitions_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := testClient(srv)
	srv.Close()

	err := client.PushDefinitions(context.Background(), amadef.NewOutputDefinition())
	if err == nil {
		t.Fatal("PushDefinitions() error = nil, want transport error")
	}
}

func TestMinCliGate_RejectsOldBuild(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderMinCli, "2.0.0")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testClient(srv).PushDefinitions(context.Background(), amadef.NewOutputDefinition())
	var minErr *MinCliError
	if !errors.As(err, &minErr) {
		t.Fatalf("PushDefinitions() error = %v, want MinCliError", err)
	}
	if minErr.Current != "1.2.3" || minErr.Required != "2.0.0" {
		t.Errorf("MinCliError = %+v, want 1.2.3 vs 2.0.0", minErr)
	}
}

func TestMinCliGate_PassesNewEnoughBuild(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderMinCli, "2.0.0")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testClient(srv, WithCLIVersion("2.1.0")).PushDefinitions(context.Background(), amadef.NewOutputDefinition())
	if err != nil {
		t.Errorf("PushDefinitions() error = %v, want nil", err)
	}
}

func TestMinCliGate_DevBuildSkipsCheck(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderMinCli, "99.0.0")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testClient(srv, WithCLIVersion("dev")).PushDefinitions(context.Background(), amadef.NewOutputDefinition())
	if err != nil {
		t.Errorf("PushDefinitions() error = %v, want nil for dev build", err)
	}
}

func TestMinCliGate_MalformedHeaderSkipsCheck(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderMinCli, "not-a-version")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testClient(srv).PushDefinitions(context.Background(), amadef.NewOutputDefinition())
	if err != nil {
		t.Errorf("PushDefinitions() error = %v, want nil for malformed header", err)
	}
}

func TestUploadFile_SendsMultipartForm(t *testing.T) {
	t.Parallel()

	local := filepath.Join(t.TempDir(), "hero.png")
	if err := os.WriteFile(local, []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotPath, gotField, gotName, gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing multipart form: %v", err)
			return
		}
		gotField = r.FormValue("path")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("reading file part: %v", err)
			return
		}
		defer file.Close()
		gotName = header.Filename
		data, _ := io.ReadAll(file)
		gotContent = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := testClient(srv).UploadFile(context.Background(), local, "assets/hero.png"); err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}

	if gotPath != filesPath {
		t.Errorf("request path = %q, want %q", gotPath, filesPath)
	}
	if gotField != "assets/hero.png" {
		t.Errorf("path field = %q, want %q", gotField, "assets/hero.png")
	}
	if gotName != "hero.png" {
		t.Errorf("file part name = %q, want %q", gotName, "hero.png")
	}
	if gotContent != "png-bytes" {
		t.Errorf("file part content = %q, want %q", gotContent, "png-bytes")
	}
}

func TestUploadFile_MissingLocalFile(t *testing.T) {
	t.Parallel()

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		requests++
	}))
	defer srv.Close()

	missing := filepath.Join(t.TempDir(), "gone.png")
	err := testClient(srv).UploadFile(context.Background(), missing, "assets/gone.png")
	if err == nil {
		t.Fatal("UploadFile() error = nil, want open error")
	}
	if requests != 0 {
		t.Errorf("server saw %d requests, want 0", requests)
	}
}

func TestSnapshot_StatusPropagates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := testClient(srv).Snapshot(context.Background()); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Snapshot() error = %v, want 404 status error", err)
	}
}

func TestDownloadSnapshot_UnpacksArchive(t *testing.T) {
	t.Parallel()

	archive := zipBytes(t, map[string]string{
		"pages/home.json": `{"title": "Home"}`,
		"hero.png":        "png-bytes",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := testClient(srv).DownloadSnapshot(context.Background(), dir); err != nil {
		t.Fatalf("DownloadSnapshot() error = %v", err)
	}

	home, err := os.ReadFile(filepath.Join(dir, "pages", "home.json"))
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(home) != `{"title": "Home"}` {
		t.Errorf("extracted content = %q", home)
	}
	if _, err := os.Stat(filepath.Join(dir, "hero.png")); err != nil {
		t.Errorf("hero.png missing after unpack: %v", err)
	}
}

func TestWithBaseURL_TrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	c := NewClient(WithBaseURL("https://example.test/project/"))
	if c.baseURL != "https://example.test/project" {
		t.Errorf("baseURL = %q, want trailing slash removed", c.baseURL)
	}
}

func TestNormalizeVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"1.2.3", "v1.2.3", true},
		{"v1.2.3", "v1.2.3", true},
		{"2.0.0-rc.1", "v2.0.0-rc.1", true},
		{"dev", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := normalizeVersion(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("normalizeVersion(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
