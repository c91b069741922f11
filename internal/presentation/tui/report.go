package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/ticketflow/internal/dto"
	"github.com/aretw0/ticketflow/pkg/domain"
)

// Output formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// Render writes the record to w in the requested format. Text output is
// markdown passed through r.
func Render(w io.Writer, rec *domain.RunRecord, format string, r Renderer) error {
	view := dto.View(rec)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		if r == nil {
			r = PlainRenderer
		}
		out, err := r(Markdown(rec))
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// RenderSummaries writes a table of runs to w.
func RenderSummaries(w io.Writer, recs []*domain.RunRecord, format string, r Renderer) error {
	sums := make([]dto.RunSummary, 0, len(recs))
	for _, rec := range recs {
		sums = append(sums, dto.Summarize(rec))
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sums)
	case FormatYAML:
		return yaml.NewEncoder(w).Encode(sums)
	}

	var sb strings.Builder
	sb.WriteString("| Run | Ticket | Status | Stages | Started |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, s := range sums {
		status := string(s.Status)
		if s.FailedStage != "" {
			status += " at " + s.FailedStage
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %d | %s |\n",
			s.ID, s.TicketID, status, s.Stages, s.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if r == nil {
		r = PlainRenderer
	}
	out, err := r(sb.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Markdown renders a run report.
func Markdown(rec *domain.RunRecord) string {
	v := dto.View(rec)
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Ticket %s\n\n", orDash(v.TicketID))
	fmt.Fprintf(&sb, "- **Run:** `%s`\n", v.ID)
	fmt.Fprintf(&sb, "- **Status:** %s\n", v.Status)
	if v.FailedStage != "" {
		fmt.Fprintf(&sb, "- **Failed stage:** %s\n", v.FailedStage)
	}
	if v.Error != "" {
		fmt.Fprintf(&sb, "- **Error:** %s\n", v.Error)
	}
	fmt.Fprintf(&sb, "- **Duration:** %dms\n\n", v.DurationMS)

	sb.WriteString("## Path\n\n")
	sb.WriteString(strings.Join(v.Path, " → "))
	sb.WriteString("\n\n")

	if res := v.Resolution; res != nil && v.Status == domain.RunCompleted {
		sb.WriteString("## Resolution\n\n")
		fmt.Fprintf(&sb, "- **Customer:** %s <%s>\n", res.CustomerName, res.Email)
		fmt.Fprintf(&sb, "- **Intent:** %s\n", orDash(res.Intent))
		fmt.Fprintf(&sb, "- **Product:** %s\n", orDash(res.Product))
		if res.SolutionScore != nil {
			fmt.Fprintf(&sb, "- **Solution score:** %d\n", *res.SolutionScore)
		}
		if res.Escalated != nil {
			fmt.Fprintf(&sb, "- **Escalated:** %t\n", *res.Escalated)
		}
		fmt.Fprintf(&sb, "- **Status:** %s\n", orDash(res.TicketStatus))
		if res.DraftResponse != "" {
			fmt.Fprintf(&sb, "\n> %s\n", res.DraftResponse)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Fields\n\n")
	keys := make([]string, 0, len(v.State))
	for k := range v.State {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "- `%s`: %v\n", k, v.State[k])
	}
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
