package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainShipment "package-tracking/internal/domain/shipment"
	"package-tracking/internal/infrastructure/database/memory"
	"package-tracking/internal/shipment/route"
	"package-tracking/internal/usecase/shipment"
)

type stubChecker struct{ err error }

func (s stubChecker) Health(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"healthy", nil, http.StatusOK},
		{"store down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(stubChecker{err: tt.err}).Health)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestTrackingHandler_PathWinsOverQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := shipment.NewService(memory.NewShipmentRepository(), route.NewStaticProvider(), nil, "")
	_, err := svc.CreateShipment(context.Background(), &shipment.CreateShipmentRequest{
		Product:     "Lamp",
		TrackingID:  "TRK-LAMP01",
		Destination: &domainShipment.Destination{City: "Austin, TX"},
	})
	require.NoError(t, err)

	r := gin.New()
	NewTrackingHandler(svc).RegisterRoutes(r.Group(""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track/TRK-LAMP01?trackingId=TRK-OTHER1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"trackingId":"TRK-LAMP01"`)
}

func TestShipmentHandler_UpdateWithEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := shipment.NewService(memory.NewShipmentRepository(), route.NewStaticProvider(), nil, "")

	r := gin.New()
	NewShipmentHandler(svc).RegisterAdminRoutes(r.Group(""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/records/TRK-NONE01", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No valid fields")
}
