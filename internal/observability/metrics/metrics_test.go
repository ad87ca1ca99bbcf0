package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddlewareExportsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/crops/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/crops/42", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	ObserveAttendance(ActionPunchIn, ResultConflict)
	ObserveAuthFailure(ReasonInactive)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	for _, want := range []string{
		`farmops_http_requests_total{method="GET",path="/crops/:id",status="204"}`,
		`farmops_attendance_events_total{action="punch_in",result="conflict"}`,
		`farmops_auth_failures_total{reason="inactive"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics output to contain %s", want)
		}
	}
}
