package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTranslateBengaliDefault(t *testing.T) {
	if err := Init("bn"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	loc := NewLocalizer()
	if got := T(loc, "StatusCorrect"); got != "সঠিক" {
		t.Errorf("T(StatusCorrect) = %q, want সঠিক", got)
	}
	if got := Td(loc, "ResultTitle", map[string]any{"Title": "গণিত"}); got != "ফলাফল: গণিত" {
		t.Errorf("Td(ResultTitle) = %q", got)
	}
}

func TestTranslateEnglishAndPlural(t *testing.T) {
	if err := Init("bn"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	loc := NewLocalizer("en")
	if got := T(loc, "StatusIncorrect"); got != "Incorrect" {
		t.Errorf("T(StatusIncorrect) = %q, want Incorrect", got)
	}
	if got := Tp(loc, "QuestionsCount", 1); got != "1 question" {
		t.Errorf("Tp(1) = %q", got)
	}
	if got := Tp(loc, "QuestionsCount", 5); got != "5 questions" {
		t.Errorf("Tp(5) = %q", got)
	}
}

func TestMissingKeyReturnsID(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := T(NewLocalizer(), "NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("T(NoSuchMessage) = %q", got)
	}
}

func TestInitRejectsBadTag(t *testing.T) {
	if err := Init("not a language!"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMiddlewareUsesAcceptLanguage(t *testing.T) {
	if err := Init("bn"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, T(FromContext(c.Request.Context()), "ResultPassed"))
	})

	tests := []struct {
		header string
		query  string
		want   string
	}{
		{"", "", "উত্তীর্ণ"},
		{"en-US,en;q=0.9", "", "Passed"},
		{"en", "bn", "উত্তীর্ণ"},
		{"fr", "", "উত্তীর্ণ"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/?lang="+tt.query, nil)
		if tt.header != "" {
			req.Header.Set("Accept-Language", tt.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Body.String() != tt.want {
			t.Errorf("header=%q query=%q: got %q, want %q", tt.header, tt.query, w.Body.String(), tt.want)
		}
	}
}
