package server_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/swipe-server/internal/app"
	"github.com/oggyb/swipe-server/internal/auth"
	"github.com/oggyb/swipe-server/internal/config"
	"github.com/oggyb/swipe-server/internal/logger"
	"github.com/oggyb/swipe-server/internal/server"
	"github.com/oggyb/swipe-server/internal/service/relay"
	"github.com/oggyb/swipe-server/internal/utils/respond"
)

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ping", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"user": strconv.FormatUint(userID, 10)})
	})
	mux.HandleFunc("GET /api/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
}

func newHandler(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := config.New()
	cfg.Auth.Secret = "server-test-secret"
	return server.NewHandler(cfg, logger.Discard(), pingRoutes{}), cfg
}

func TestHandler_HealthIsPublic(t *testing.T) {
	h, _ := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.HealthPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandler_RequiresBearerToken(t *testing.T) {
	h, cfg := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := auth.GenerateToken(42, []byte(cfg.Auth.Secret), time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("X-Request-ID", "req-1")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"42"}`, rec.Body.String())
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
}

func TestHandler_CORSPreflight(t *testing.T) {
	h, _ := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestHandler_RecoversPanics(t *testing.T) {
	h, cfg := newHandler(t)

	tok, err := auth.GenerateToken(1, []byte(cfg.Auth.Secret), time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/boom", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGRPCServer_HealthReportsServices(t *testing.T) {
	log := logger.Discard()
	appCtx := &app.AppContext{Config: config.New(), Logger: log}
	srv, _ := server.NewGRPCServer(log, relay.NewRegistrar(appCtx, relay.NewHub(log, nil)))

	lis := bufconn.Listen(1024 * 1024)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := healthpb.NewHealthClient(conn)

	for _, name := range []string{"", "relay.v1.Relay"} {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: name})
		require.NoError(t, err, name)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus(), name)
	}
}
