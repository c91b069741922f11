package cli

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/ticketflow/pkg/support"
)

// ReadTicket reads a ticket from path, or from stdin when path is "-".
// JSON and YAML are both accepted.
func ReadTicket(path string, stdin io.Reader) (support.Ticket, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return support.Ticket{}, fmt.Errorf("failed to open ticket: %w", err)
		}
		defer f.Close()
		r = f
	}
	return DecodeTicket(r)
}

// DecodeTicket parses one JSON or YAML document into a ticket.
func DecodeTicket(r io.Reader) (support.Ticket, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return support.Ticket{}, fmt.Errorf("failed to parse ticket: empty input")
		}
		return support.Ticket{}, fmt.Errorf("failed to parse ticket: %w", err)
	}
	return support.DecodeTicket(raw)
}
