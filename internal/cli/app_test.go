package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ticketflow/internal/config"
	"github.com/aretw0/ticketflow/internal/presentation/tui"
	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/observability"
	"github.com/aretw0/ticketflow/pkg/persistence/middleware"
	"github.com/aretw0/ticketflow/pkg/support"
)

func newApp(t *testing.T, cfg *config.Config, opts ...AppOption) (*App, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	app, err := NewApp(cfg, append([]AppOption{WithLogOutput(&logs)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })
	return app, &logs
}

func TestNewApp_Defaults(t *testing.T) {
	app, logs := newApp(t, nil)

	var out bytes.Buffer
	rec, err := app.ResolveAndReport(context.Background(), support.SampleTicket(), &out, tui.FormatText, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, rec.Status)
	assert.Contains(t, out.String(), "# Ticket T125")
	assert.Contains(t, logs.String(), "ticket resolved")

	stored, err := app.Manager.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)
	assert.NotNil(t, app.Metrics, "metrics are enabled by default")
}

func TestNewApp_SolutionScoreFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.SolutionScore = 40
	app, _ := newApp(t, cfg)

	rec, err := app.ResolveAndReport(context.Background(), support.SampleTicket(), &bytes.Buffer{}, tui.FormatJSON, nil)
	require.NoError(t, err)
	escalated, ok := rec.State.Bool(domain.FieldEscalated)
	require.True(t, ok)
	assert.True(t, escalated)
}

func TestNewApp_AbortedRunIsReported(t *testing.T) {
	app, _ := newApp(t, nil)

	var out bytes.Buffer
	ticket := support.Ticket{CustomerName: "Bob", Query: "help"}
	rec, err := app.ResolveAndReport(context.Background(), ticket, &out, tui.FormatText, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExecutionAborted)
	require.NotNil(t, rec)
	assert.Equal(t, support.StageIntake, rec.FailedStage)
	assert.Contains(t, out.String(), "**Failed stage:** INTAKE")
}

func TestNewApp_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})

	cfg := config.Default()
	cfg.Store.Backend = config.StoreRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Prefix = "test:"
	cfg.Redis.TTL = time.Hour
	app, _ := newApp(t, cfg, WithRedisClient(client))

	rec, err := app.ResolveAndReport(context.Background(), support.SampleTicket(), &bytes.Buffer{}, tui.FormatJSON, nil)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:"+rec.ID), "keys: %v", mr.Keys())

	ids, err := app.Store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, ids)
}

func TestNewApp_Tracing(t *testing.T) {
	var spans bytes.Buffer
	app, err := NewApp(nil, WithLogOutput(&bytes.Buffer{}), WithTraceOutput(&spans))
	require.NoError(t, err)

	_, err = app.ResolveAndReport(context.Background(), support.SampleTicket(), &bytes.Buffer{}, tui.FormatJSON, nil)
	require.NoError(t, err)
	require.NoError(t, app.Close(context.Background()))

	assert.Contains(t, spans.String(), "stage INTAKE")
	assert.Contains(t, spans.String(), "ticketflow.run")
}

func TestNewApp_ExtraHooks(t *testing.T) {
	rec := observability.NewRecorder()
	app, _ := newApp(t, nil, WithHooks(rec.Hooks()))

	_, err := app.Manager.Resolve(context.Background(), mustState(t, support.SampleTicket()))
	require.NoError(t, err)
	assert.Equal(t, support.Order, rec.Stages())
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "etcd"
	_, err := NewApp(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etcd")
}

func TestApp_Handler(t *testing.T) {
	app, _ := newApp(t, nil)
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/tickets", "application/json",
		strings.NewReader(`{"customer_name":"Alice","email":"a@example.com","query":"login","ticket_id":"T1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "ticketflow_runs_completed_total")
}

func TestApp_ServeStopsOnCancel(t *testing.T) {
	app, _ := newApp(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestApp_ServeAnswersUntilCancel(t *testing.T) {
	app, _ := newApp(t, nil)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	_, err = http.Get("http://" + addr + "/healthz")
	assert.Error(t, err, "listener must be closed after shutdown")
}

func mustState(t *testing.T, tk support.Ticket) *domain.State {
	t.Helper()
	s, err := tk.State()
	require.NoError(t, err)
	return s
}

func TestNewApp_ProtectedStore(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	cfg := config.Default()
	cfg.Store.RedactPII = true
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(key)
	app, _ := newApp(t, cfg)

	rec, err := app.Manager.Resolve(context.Background(), mustState(t, support.SampleTicket()))
	require.NoError(t, err)
	email, _ := rec.State.String(domain.FieldEmail)
	assert.Equal(t, "alice@example.com", email, "the caller keeps the real record")

	stored, err := app.Manager.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	email, _ = stored.State.String(domain.FieldEmail)
	assert.Equal(t, middleware.Mask, email)
	status, _ := stored.State.String(domain.FieldTicketStatus)
	assert.Equal(t, "Closed", status)
}

func TestNewApp_BadEncryptionKey(t *testing.T) {
	cfg := config.Default()
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short"))
	_, err := NewApp(cfg, WithLogOutput(&bytes.Buffer{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestNewApp_RedactsStreamedState(t *testing.T) {
	cfg := config.Default()
	cfg.Store.RedactPII = true
	app, _ := newApp(t, cfg)

	events, cancel := app.Streams.Subscribe("", domain.EventRunComplete)
	defer cancel()

	_, err := app.Manager.Resolve(context.Background(), mustState(t, support.SampleTicket()))
	require.NoError(t, err)

	select {
	case msg := <-events:
		assert.NotContains(t, msg.Data, "alice@example.com")
		assert.Contains(t, msg.Data, `"email":"`+middleware.Mask+`"`)
	case <-time.After(time.Second):
		t.Fatal("no run_complete event")
	}
}
