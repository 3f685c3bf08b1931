package flash_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ErlanBelekov/todo-app/internal/transport/http/flash"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSetThenPop_RoundTripsAndClears(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/todos", nil)
	flash.Success(c, "Todo created successfully")

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/todos", nil)
	c2.Request.AddCookie(cookies[0])

	msg := flash.Pop(c2)
	if msg == nil {
		t.Fatal("Pop returned nil")
	}
	if msg.Kind != flash.KindSuccess || msg.Text != "Todo created successfully" {
		t.Errorf("msg = %+v", msg)
	}

	cleared := w2.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("flash cookie not cleared: %+v", cleared)
	}
}

func TestPop_NoCookie_ReturnsNil(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if msg := flash.Pop(c); msg != nil {
		t.Errorf("msg = %+v, want nil", msg)
	}
}

func TestPop_GarbageCookie_ReturnsNil(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: "flash", Value: "!!not-base64!!"})

	if msg := flash.Pop(c); msg != nil {
		t.Errorf("msg = %+v, want nil", msg)
	}
}
