package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestObserveTransitionCounts(t *testing.T) {
	before := counterValue(t, transitionsTotal.WithLabelValues("offer", "accept", "not_found"))
	ObserveTransition("offer", "accept", "not_found")
	after := counterValue(t, transitionsTotal.WithLabelValues("offer", "accept", "not_found"))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestHandlerExposesWorkflowMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ObserveTransition("job", "publish", "success")

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/metrics", Handler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "recruit_workflow_transitions_total") {
		t.Fatalf("expected workflow counter in exposition")
	}
}

func TestAsynqMiddlewareCountsFailures(t *testing.T) {
	h := AsynqMiddleware()(asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		return errors.New("boom")
	}))
	before := counterValue(t, taskFailedTotal.WithLabelValues("test:fail"))
	if err := h.ProcessTask(context.Background(), asynq.NewTask("test:fail", nil)); err == nil {
		t.Fatalf("expected error to propagate")
	}
	if got := counterValue(t, taskFailedTotal.WithLabelValues("test:fail")); got-before != 1 {
		t.Fatalf("expected failure counter to grow by 1, got %v", got-before)
	}
}
