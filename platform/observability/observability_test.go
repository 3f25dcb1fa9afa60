package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false, ServiceName: "yamoney"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestHTTPMiddleware_PutsLoggerIntoContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	router := chi.NewRouter()
	router.Use(HTTPMiddleware("yamoney", logger))
	router.Get("/yamoney/complete", func(w http.ResponseWriter, r *http.Request) {
		l := LoggerFromContext(r.Context())
		require.NotNil(t, l)
		L(r.Context(), zap.NewNop()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/yamoney/complete", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, 1, logs.FilterMessage("inside handler").Len())
}

func TestL_FallsBackToBase(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	L(context.Background(), zap.New(core)).Info("no span")
	require.Equal(t, 1, logs.Len())
	require.Empty(t, TraceFields(context.Background()))
}
