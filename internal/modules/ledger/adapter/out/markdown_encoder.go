package out

import (
	"fmt"
	"io"
	"strings"

	"tally/internal/modules/ledger/dto"
	ledgerout "tally/internal/modules/ledger/port/out"
	"tally/internal/platform/markdown"
	"tally/internal/platform/timefmt"
)

const blockName = "tally"

// MarkdownEncoder writes a timesheet note. Merging into an existing note
// only rewrites the tally block and the tally_* frontmatter keys.
type MarkdownEncoder struct{}

func NewMarkdownEncoder() ledgerout.Merger {
	return MarkdownEncoder{}
}

func (MarkdownEncoder) Format() string { return "markdown" }

func (e MarkdownEncoder) Encode(w io.Writer, report dto.Report) error {
	doc := markdown.Document{Meta: map[string]any{}, Body: "# Timesheet\n"}
	out, err := e.fill(doc, report)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func (e MarkdownEncoder) Merge(existing string, report dto.Report) (string, error) {
	doc, err := markdown.Parse(existing)
	if err != nil {
		return "", fmt.Errorf("read existing note: %w", err)
	}
	return e.fill(doc, report)
}

func (MarkdownEncoder) fill(doc markdown.Document, report dto.Report) (string, error) {
	var total int64
	for _, s := range report.Stacks {
		total += s.TotalSeconds
	}
	doc.Meta["tally_generated_at"] = report.GeneratedAt
	doc.Meta["tally_total"] = timefmt.FormatDuration(total)
	doc.Meta["tally_runs"] = len(report.Tasks)
	doc.SetBlock(blockName, renderTables(report))
	return doc.Render()
}

func renderTables(report dto.Report) string {
	var sb strings.Builder
	sb.WriteString("## Tasks\n\n| Task | Project | Client | Runs | Total |\n|---|---|---|---:|---:|\n")
	for _, s := range report.Stacks {
		fmt.Fprintf(&sb, "| %s | %s | %s | %d | %s |\n",
			cell(s.BaseName), cell(s.ProjectName), cell(s.ClientName), s.Count, timefmt.FormatDuration(s.TotalSeconds))
	}
	sb.WriteString("\n## Runs\n\n| ID | Task | Start | End | Spent |\n|---:|---|---|---|---:|\n")
	for _, t := range report.Tasks {
		end := t.EndTime
		if t.Open {
			end = "open"
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s |\n",
			t.ID, cell(t.Name), t.StartTime, end, timefmt.FormatDuration(t.TimeSpent))
	}
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
