package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/csrf"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, rate int, interval time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(t.Context(), rate, interval)
	rl.now = clock.now
	return rl, clock
}

// TestRateLimiter_AllowAndRefill verifies the bucket empties and refills per interval.
func TestRateLimiter_AllowAndRefill(t *testing.T) {
	rl, clock := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other IPs have their own bucket")
	}

	clock.t = clock.t.Add(30 * time.Second)
	if rl.Allow("1.2.3.4") {
		t.Error("partial interval should not refill")
	}
	clock.t = clock.t.Add(31 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("a full interval should refill the bucket")
	}
}

// TestRateLimiter_Prune verifies idle visitors are forgotten.
func TestRateLimiter_Prune(t *testing.T) {
	rl, clock := newTestLimiter(t, 1, time.Minute)
	rl.Allow("1.2.3.4")
	clock.t = clock.t.Add(10 * time.Minute)
	rl.Prune(5 * time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Error("pruned visitor should start with a fresh bucket")
	}
}

// TestRateLimit_OnlyMatchingRequests verifies the predicate scopes the limit.
func TestRateLimit_OnlyMatchingRequests(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Hour)
	isLoginPost := func(r *http.Request) bool { return r.Method == http.MethodPost && r.URL.Path == "/admin/login" }
	handler := RateLimit(rl, isLoginPost)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("POST", "/admin/login"); code != http.StatusOK {
		t.Errorf("first login = %d", code)
	}
	if code := send("POST", "/admin/login"); code != http.StatusTooManyRequests {
		t.Errorf("second login = %d, want 429", code)
	}
	if code := send("GET", "/door"); code != http.StatusOK {
		t.Errorf("door view = %d, want 200", code)
	}
}

// TestRateLimiter_StopsWithContext verifies the prune loop exits when its context is cancelled.
func TestRateLimiter_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rl := NewRateLimiter(ctx, 1, time.Minute)
	cancel()
	select {
	case <-rl.done:
	case <-time.After(2 * time.Second):
		t.Fatal("prune loop still running after cancel")
	}
}

// TestMaxBody verifies oversized bodies are refused before the handler reads them.
func TestMaxBody(t *testing.T) {
	var got string
	h := MaxBody(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		got = string(data)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/", strings.NewReader("small body")))
	if rr.Code != http.StatusOK || got != "small body" {
		t.Errorf("small body: status = %d, got %q", rr.Code, got)
	}

	got = ""
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 17))))
	if rr.Code != http.StatusRequestEntityTooLarge || got != "" {
		t.Errorf("declared length over limit: status = %d, handler saw %q", rr.Code, got)
	}

	// Unknown length: the cap is enforced while reading.
	req := httptest.NewRequest("POST", "/", io.NopCloser(strings.NewReader(strings.Repeat("x", 64))))
	req.ContentLength = -1
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("streamed body over limit: status = %d", rr.Code)
	}
}

// TestClientIP verifies the port is stripped.
func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.7:41000"
	if got := ClientIP(req); got != "198.51.100.7" {
		t.Errorf("ClientIP = %q", got)
	}
	req.RemoteAddr = "unix-socket"
	if got := ClientIP(req); got != "unix-socket" {
		t.Errorf("ClientIP = %q", got)
	}
}

// TestSecurityHeaders verifies the headers are set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

// TestCSRF_RoundTrip verifies a form POST needs the token issued on GET.
func TestCSRF_RoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte("k"), 32)
	handler := CSRF(key, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			io.WriteString(w, csrf.Token(r))
			return
		}
		io.WriteString(w, "saved")
	}))

	getRR := httptest.NewRecorder()
	handler.ServeHTTP(getRR, httptest.NewRequest("GET", "/admin", nil))
	token := getRR.Body.String()
	if token == "" {
		t.Fatal("expected a CSRF token")
	}
	cookies := getRR.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a CSRF cookie")
	}

	post := func(withToken bool) int {
		form := url.Values{}
		if withToken {
			form.Set(CSRFFieldName, token)
		}
		req := httptest.NewRequest("POST", "/admin/messages", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := post(false); code != http.StatusForbidden {
		t.Errorf("POST without token = %d, want 403", code)
	}
	if code := post(true); code != http.StatusOK {
		t.Errorf("POST with token = %d, want 200", code)
	}
}

// TestChain_Order verifies the first middleware is the innermost.
func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), mark("inner"), mark("outer"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v", order)
	}
}
