package blobstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/photo-diary/internal/config"
)

func setupMockServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/bucket/photos/a.jpg", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	})
	mux.HandleFunc("/bucket/photos/versioned.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("v=" + r.URL.Query().Get("v")))
	})
	mux.HandleFunc("/bucket/slow.jpg", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(config.BlobStoreConfig{URL: server.URL + "/bucket/", Token: "test-token"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "blobs.example.com"},
		{"ftp", "ftp://blobs.example.com"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewClient(config.BlobStoreConfig{URL: tc.url}); err == nil {
				t.Errorf("expected error for %q", tc.url)
			}
		})
	}
}

func TestFetch_Success(t *testing.T) {
	server := setupMockServer(t)
	c := newTestClient(t, server)

	data, contentType, err := c.Fetch(context.Background(), "photos/a.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("expected 'jpeg-bytes', got '%s'", data)
	}
	if contentType != "image/jpeg" {
		t.Errorf("expected 'image/jpeg', got '%s'", contentType)
	}
}

func TestFetch_LeadingSlashAndQuery(t *testing.T) {
	server := setupMockServer(t)
	c := newTestClient(t, server)

	data, _, err := c.Fetch(context.Background(), "/photos/versioned.png?v=3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "v=3" {
		t.Errorf("expected query to be forwarded, got '%s'", data)
	}
}

func TestFetch_NotFound(t *testing.T) {
	server := setupMockServer(t)
	c := newTestClient(t, server)

	_, _, err := c.Fetch(context.Background(), "photos/missing.jpg")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestFetch_Unauthorized(t *testing.T) {
	server := setupMockServer(t)
	c, _ := NewClient(config.BlobStoreConfig{URL: server.URL + "/bucket", Token: "wrong"})

	_, _, err := c.Fetch(context.Background(), "photos/a.jpg")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsNotFound(err) {
		t.Error("401 should not be reported as not found")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestFetch_EmptyPath(t *testing.T) {
	server := setupMockServer(t)
	c := newTestClient(t, server)

	if _, _, err := c.Fetch(context.Background(), "  "); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := setupMockServer(t)
	c := newTestClient(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, _, err := c.Fetch(ctx, "slow.jpg"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
