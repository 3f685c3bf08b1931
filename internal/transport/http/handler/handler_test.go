package handler_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/ErlanBelekov/todo-app/internal/transport/http/flash"
	"github.com/ErlanBelekov/todo-app/internal/transport/http/handler"
	"github.com/ErlanBelekov/todo-app/internal/web"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func newRenderer(t *testing.T) *handler.Renderer {
	t.Helper()
	pages, err := web.Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	return handler.NewRenderer(pages, testLogger())
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// flashText decodes the flash cookie the response set, or "" if none.
func flashText(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name != "flash" || ck.MaxAge < 0 {
			continue
		}
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.AddCookie(ck)
		if msg := flash.Pop(c); msg != nil {
			return msg.Text
		}
	}
	return ""
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if w.Code != http.StatusSeeOther && w.Code != http.StatusFound {
		t.Errorf("status = %d, want redirect", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}
