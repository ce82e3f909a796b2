package network

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/athifer/biodsjobs/internal/models"
)

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	client, err := NewClient(opts)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestFetchReportsStatusWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		if r.Header.Get("Accept-Language") == "" {
			t.Errorf("missing accept-language")
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "<html>gone</html>")
	}))
	defer srv.Close()

	client := newTestClient(t, Options{Timeout: 5 * time.Second})
	res, err := client.Fetch(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Status != models.StatusClientError || res.StatusCode != http.StatusNotFound {
		t.Fatalf("Fetch() status = %s/%d", res.Status, res.StatusCode)
	}
	if !strings.Contains(string(res.Body), "gone") {
		t.Fatalf("body = %q", res.Body)
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, Options{Timeout: 5 * time.Second})
	res, err := client.Fetch(context.Background(), Request{URL: srv.URL + "/old"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.FinalURL != srv.URL+"/new" {
		t.Fatalf("FinalURL = %q, want %q", res.FinalURL, srv.URL+"/new")
	}

	res, err = client.Fetch(context.Background(), Request{URL: srv.URL + "/old", NoRedirect: true})
	if err != nil {
		t.Fatalf("Fetch(NoRedirect) error = %v", err)
	}
	if res.StatusCode != http.StatusFound {
		t.Fatalf("StatusCode = %d, want 302", res.StatusCode)
	}
}

func TestFetchPostsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		data, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	client := newTestClient(t, Options{Timeout: 5 * time.Second})
	res, err := client.Fetch(context.Background(), Request{
		URL:     srv.URL,
		Method:  http.MethodPost,
		Body:    []byte(`{"limit":50}`),
		Headers: map[string]string{"content-type": "application/json"},
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(res.Body) != `{"limit":50}` {
		t.Fatalf("echo body = %q", res.Body)
	}
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	client := newTestClient(t, Options{Timeout: 2 * time.Second})
	res, err := client.Fetch(context.Background(), Request{URL: addr})
	if err == nil {
		t.Fatalf("expected network error")
	}
	if !IsNetworkError(err) {
		t.Fatalf("error %v is not a network error", err)
	}
	if res.Status != models.StatusNetworkError {
		t.Fatalf("Status = %s", res.Status)
	}
}

type countingLimiter struct{ calls int }

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.calls++
	return ctx.Err()
}

func TestFetchWaitsOnLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	limiter := &countingLimiter{}
	client := newTestClient(t, Options{Timeout: 2 * time.Second, Limiter: limiter})
	for i := 0; i < 3; i++ {
		if _, err := client.Fetch(context.Background(), Request{URL: srv.URL}); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}
	if limiter.calls != 3 {
		t.Fatalf("limiter calls = %d, want 3", limiter.calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Fetch(ctx, Request{URL: srv.URL}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

func TestFetchRateBudgetExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	limiter := NewLimiter(0.01, 1)
	client := newTestClient(t, Options{Timeout: 2 * time.Second, Limiter: limiter})
	if _, err := client.Fetch(context.Background(), Request{URL: srv.URL}); err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := client.Fetch(ctx, Request{URL: srv.URL})
	if !errors.Is(err, ErrRateBudget) {
		t.Fatalf("Fetch() error = %v, want ErrRateBudget", err)
	}
	if !IsNetworkError(err) {
		t.Fatalf("expected a network error, got %T", err)
	}
}

func TestFetchDoesNotCarryCookiesAcrossRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/set" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "acme", Path: "/"})
			return
		}
		if _, err := r.Cookie("session"); err == nil {
			_, _ = io.WriteString(w, "cookie")
		}
	}))
	defer srv.Close()

	client := newTestClient(t, Options{Timeout: 2 * time.Second})
	if _, err := client.Fetch(context.Background(), Request{URL: srv.URL + "/set"}); err != nil {
		t.Fatalf("Fetch(/set) error = %v", err)
	}
	res, err := client.Fetch(context.Background(), Request{URL: srv.URL + "/echo"})
	if err != nil {
		t.Fatalf("Fetch(/echo) error = %v", err)
	}
	if string(res.Body) != "" {
		t.Fatalf("cookie leaked into a later request: %q", res.Body)
	}
}

func TestFetchCapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 1000))
	}))
	defer srv.Close()

	client := newTestClient(t, Options{Timeout: 2 * time.Second, MaxBodyBytes: 100})
	res, err := client.Fetch(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(res.Body) != 100 {
		t.Fatalf("len(Body) = %d, want 100", len(res.Body))
	}
}
