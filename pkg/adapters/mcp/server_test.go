package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ticketflow"
	"github.com/aretw0/ticketflow/internal/dto"
	"github.com/aretw0/ticketflow/pkg/adapters/memory"
	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/session"
	"github.com/aretw0/ticketflow/pkg/support"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	engine, err := ticketflow.New()
	require.NoError(t, err)
	return NewServer(session.NewManager(engine, memory.NewStore()), engine, nil)
}

func aliceArgs() map[string]interface{} {
	return map[string]interface{}{
		"customer_name": "Alice",
		"email":         "alice@example.com",
		"query":         "I cannot log in to my email account",
		"priority":      "high",
		"ticket_id":     "T125",
	}
}

func TestResolveTicket(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	resp, err := s.handleResolve(ctx, mcp.CallToolRequest{}, aliceArgs())
	require.NoError(t, err)
	assert.Nil(t, resp.Error)
	assert.Equal(t, domain.RunCompleted, resp.Run.Status)
	assert.Equal(t, support.Order, resp.Run.Path)

	got, err := s.handleGetRun(ctx, mcp.CallToolRequest{}, map[string]interface{}{"run_id": resp.Run.ID})
	require.NoError(t, err)
	assert.Equal(t, resp.Run.ID, got.ID)

	list, err := s.handleListRuns(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, "T125", list.Runs[0].TicketID)
}

func TestResolveTicket_AbortIsReportedNotFailed(t *testing.T) {
	s := newServer(t)

	args := aliceArgs()
	delete(args, "email")
	resp, err := s.handleResolve(context.Background(), mcp.CallToolRequest{}, args)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.KindAborted, resp.Error.Kind)
	assert.Equal(t, support.StageIntake, resp.Error.Stage)
	assert.Equal(t, []string{domain.FieldEmail}, resp.Error.Missing)
	assert.Equal(t, domain.RunAborted, resp.Run.Status)
}

func TestGetRun_Errors(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	_, err := s.handleGetRun(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)

	_, err = s.handleGetRun(ctx, mcp.CallToolRequest{}, map[string]interface{}{"run_id": "nope"})
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestGetGraph(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	res, err := s.handleGetGraph(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var nodes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &nodes))
	assert.Len(t, nodes, len(support.Order))

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"format": "mermaid"}
	res, err = s.handleGetGraph(ctx, req)
	require.NoError(t, err)
	text, ok = res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "graph TD")
}

func TestGraphResources(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	contents, err := s.readGraph(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, GraphURI, text.URI)
	assert.Contains(t, text.Text, `"INTAKE"`)

	contents, err = s.readGraphMermaid(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	text, ok = contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, "INTAKE")
}

func TestServeSSE_StopsOnCancel(t *testing.T) {
	s := newServer(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeSSE(ctx, port) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/message", port)
	require.Eventually(t, func() bool {
		resp, err := http.Post(url, "application/json", nil)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("ServeSSE did not return after cancel")
	}
}
