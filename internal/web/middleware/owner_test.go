package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithOwner(t *testing.T) {
	tests := []struct {
		name         string
		header       string
		defaultOwner string
		want         string
	}{
		{"header", "bob", "alice", "bob"},
		{"header trimmed", "  bob ", "alice", "bob"},
		{"fallback", "", "alice", "alice"},
		{"blank header falls back", "   ", "alice", "alice"},
		{"none", "", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			handler := WithOwner(tc.defaultOwner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetOwner(r.Context())
			}))

			req := httptest.NewRequest("GET", "/api/v1/calendar", nil)
			if tc.header != "" {
				req.Header.Set("X-Diary-Owner", tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tc.want {
				t.Errorf("GetOwner() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGetOwner_EmptyContext(t *testing.T) {
	if owner := GetOwner(context.Background()); owner != "" {
		t.Errorf("GetOwner() = %q, want empty", owner)
	}
	ctx := SetOwnerInContext(context.Background(), "carol")
	if owner := GetOwner(ctx); owner != "carol" {
		t.Errorf("GetOwner() = %q, want carol", owner)
	}
}
