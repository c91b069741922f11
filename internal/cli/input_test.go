package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTicket(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "ticket.json")
	yamlPath := filepath.Join(dir, "ticket.yaml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"customer_name":"Carol","email":"c@example.com","query":"refund","ticket_id":7}`), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("customer_name: Dan\nemail: d@example.com\nquery: reset\nticket_id: T9\n"), 0o644))

	tk, err := ReadTicket(jsonPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "Carol", tk.CustomerName)
	assert.Equal(t, "7", tk.TicketID)

	tk, err = ReadTicket(yamlPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "Dan", tk.CustomerName)
	assert.Equal(t, "T9", tk.TicketID)

	tk, err = ReadTicket("-", strings.NewReader(`{"customer_name":"Eve"}`))
	require.NoError(t, err)
	assert.Equal(t, "Eve", tk.CustomerName)
}

func TestReadTicket_Errors(t *testing.T) {
	_, err := ReadTicket(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ReadTicket("-", strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty input")

	_, err = ReadTicket("-", strings.NewReader("- a\n- b\n"))
	assert.Error(t, err)
}
