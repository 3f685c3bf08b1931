package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	ctxlog "github.com/ErlanBelekov/todo-app/internal/log"
	"github.com/ErlanBelekov/todo-app/internal/metrics"
	"github.com/ErlanBelekov/todo-app/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const testKey = "middleware-test-secret-32-chars!!"

func init() {
	gin.SetMode(gin.TestMode)
}

// newSessionEngine protects GET /todos with Session; the handler echoes the
// userID and session version so tests can assert they were set.
func newSessionEngine() *gin.Engine {
	r := gin.New()
	r.GET("/todos", middleware.Session([]byte(testKey)), func(c *gin.Context) {
		c.String(http.StatusOK, "%s|%s|%s", c.GetString("userID"), ctxlog.UserID(c.Request.Context()), c.GetString("sessionVersion"))
	})
	return r
}

func makeJWT(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return s
}

func requestWithSession(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}
	return req
}

func assertRedirectToLogin(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

// ---- Session ----

func TestSession_NoCookie_RedirectsToLogin(t *testing.T) {
	w := httptest.NewRecorder()
	newSessionEngine().ServeHTTP(w, requestWithSession(""))
	assertRedirectToLogin(t, w)
}

func TestSession_WrongKey_RedirectsToLogin(t *testing.T) {
	token := makeJWT(t, []byte("another-secret-that-is-32-chars!!"), jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	w := httptest.NewRecorder()
	newSessionEngine().ServeHTTP(w, requestWithSession(token))
	assertRedirectToLogin(t, w)
}

func TestSession_Expired_RedirectsToLogin(t *testing.T) {
	token := makeJWT(t, []byte(testKey), jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	w := httptest.NewRecorder()
	newSessionEngine().ServeHTTP(w, requestWithSession(token))
	assertRedirectToLogin(t, w)
}

func TestSession_MissingSub_RedirectsToLogin(t *testing.T) {
	token := makeJWT(t, []byte(testKey), jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	w := httptest.NewRecorder()
	newSessionEngine().ServeHTTP(w, requestWithSession(token))
	assertRedirectToLogin(t, w)
}

func TestSession_Valid_SetsUserIDInGinAndLogContext(t *testing.T) {
	token := makeJWT(t, []byte(testKey), jwt.MapClaims{
		"sub": "user-1",
		"ver": "v1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	w := httptest.NewRecorder()
	newSessionEngine().ServeHTTP(w, requestWithSession(token))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "user-1|user-1|v1" {
		t.Errorf("body = %q, want user-1|user-1|v1", w.Body.String())
	}
}

// ---- CurrentUser ----

type fakeUserFinder struct {
	findByID func(ctx context.Context, id string) (*domain.User, error)
}

func (f *fakeUserFinder) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return f.findByID(ctx, id)
}

// sessionUser is the stored record behind the fake session set by
// newCurrentUserEngine.
var sessionUser = &domain.User{ID: "user-1", Username: "alice", PasswordHash: "hash-1"}

func newCurrentUserEngine(users *fakeUserFinder, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.GET("/todos",
		func(c *gin.Context) {
			c.Set("userID", sessionUser.ID)
			c.Set("sessionVersion", sessionUser.SessionVersion())
			c.Next()
		},
		middleware.CurrentUser(users, logger),
		func(c *gin.Context) {
			u := c.MustGet("user").(*domain.User)
			c.String(http.StatusOK, u.Username)
		},
	)
	return r
}

func TestCurrentUser_Found_SetsUser(t *testing.T) {
	users := &fakeUserFinder{findByID: func(context.Context, string) (*domain.User, error) {
		return sessionUser, nil
	}}
	w := httptest.NewRecorder()
	newCurrentUserEngine(users, slog.New(slog.NewTextHandler(os.Stderr, nil))).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/todos", nil))

	if w.Code != http.StatusOK || w.Body.String() != "alice" {
		t.Errorf("got %d %q, want 200 alice", w.Code, w.Body.String())
	}
}

func TestCurrentUser_Missing_Returns500AndLogsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	users := &fakeUserFinder{findByID: func(context.Context, string) (*domain.User, error) {
		return nil, domain.ErrUserNotFound
	}}
	w := httptest.NewRecorder()
	newCurrentUserEngine(users, logger).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/todos", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("log %q has no ERROR record", buf.String())
	}
}

func TestCurrentUser_StoreError_Returns500(t *testing.T) {
	users := &fakeUserFinder{findByID: func(context.Context, string) (*domain.User, error) {
		return nil, errors.New("db down")
	}}
	w := httptest.NewRecorder()
	newCurrentUserEngine(users, slog.New(slog.NewTextHandler(os.Stderr, nil))).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/todos", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestCurrentUser_PasswordChangedSinceLogin_ClearsSessionAndRedirects(t *testing.T) {
	users := &fakeUserFinder{findByID: func(context.Context, string) (*domain.User, error) {
		return &domain.User{ID: sessionUser.ID, Username: "alice", PasswordHash: "hash-2"}, nil
	}}
	w := httptest.NewRecorder()
	newCurrentUserEngine(users, slog.New(slog.NewTextHandler(io.Discard, nil))).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/todos", nil))

	assertRedirectToLogin(t, w)
	var cleared bool
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.SessionCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared")
	}
}

// ---- RequestID / Security / Metrics ----

func TestRequestID_PreservesIncomingHeader(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ctxlog.RequestID(c.Request.Context())) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	r.ServeHTTP(w, req)

	if w.Body.String() != "abc" || w.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("body %q header %q, want abc", w.Body.String(), w.Header().Get("X-Request-ID"))
	}
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ctxlog.RequestID(c.Request.Context())) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Body.String() == "" || w.Body.String() != w.Header().Get("X-Request-ID") {
		t.Errorf("body %q header %q", w.Body.String(), w.Header().Get("X-Request-ID"))
	}
}

func TestSecurity_SetsHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Security())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if w.Header().Get(h) == "" {
			t.Errorf("header %s not set", h)
		}
	}
}

func TestMetrics_CountsByRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Metrics())
	r.POST("/todos/:id/toggle", func(c *gin.Context) { c.Status(http.StatusFound) })

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/todos/:id/toggle", "302")
	before := testutil.ToFloat64(counter)

	for i := 0; i < 2; i++ {
		path := fmt.Sprintf("/todos/%d/toggle", i)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("counter delta = %v, want 2", got)
	}
}
