package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetUserDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.EscapedPath() != "/users/user%201" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.EscapedPath())
		}
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"firstName":"Ada","email":"ada@example.com","answers":{"visa":"no"}}`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL+"/", nil).GetUserDetails(context.Background(), "user 1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.UserID != "user 1" || p.FirstName != "Ada" || p.Answers["visa"] != "no" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestGetUserDetailsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, srv.Client()).GetUserDetails(context.Background(), "u"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestGetUserDetailsBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, nil).GetUserDetails(context.Background(), "u"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestGetUserDetailsRequiresUser(t *testing.T) {
	if _, err := NewClient("http://127.0.0.1", nil).GetUserDetails(context.Background(), " "); err == nil {
		t.Fatalf("expected error")
	}
}
