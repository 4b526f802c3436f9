package orders

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func TestNewRouter_RoutesExist(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	validator := NewValidator(&stubRegistry{}, newValidatorBreaker(), NewUserCache())
	handler := NewHandler(NewService(NewStore(db), &mockPublisher{}), validator)
	router := NewRouter(handler, HealthInfo{})

	expectedRoutes := map[string]string{
		"GET /health":             "health",
		"GET /metrics":            "metrics",
		"POST /orders":            "create",
		"GET /orders":             "list",
		"GET /orders/:id":         "get",
		"POST /orders/:id/cancel": "cancel",
		"GET /swagger/*any":       "swagger",
	}

	found := make(map[string]bool)
	for _, r := range router.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := expectedRoutes[key]; ok {
			found[key] = true
		}
	}

	for key, desc := range expectedRoutes {
		if !found[key] {
			t.Errorf("missing route %s (%s)", key, desc)
		}
	}
}
