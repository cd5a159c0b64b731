// Package report renders cleanup plans and apply results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/stemsi/recordclean/internal/model"
)

const ruleWidth = 70

// Styles holds the console palette. Colours are dropped automatically when
// the output is not a terminal.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles builds the palette for renderer r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#AD7FA8")),
		Success: r.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("#E53935")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("#26C6DA")),
		Muted:   r.NewStyle().Faint(true),
	}
}

// Printer writes styled report lines to one output.
type Printer struct {
	w      io.Writer
	styles Styles
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, styles: NewStyles(lipgloss.NewRenderer(w))}
}

func (p *Printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Header(title string) {
	rule := strings.Repeat("=", ruleWidth)
	p.line("")
	p.line("%s", p.styles.Header.Render(rule))
	p.line("%s", p.styles.Header.Render(lipgloss.PlaceHorizontal(ruleWidth, lipgloss.Center, title)))
	p.line("%s", p.styles.Header.Render(rule))
	p.line("")
}

func (p *Printer) Rule() {
	p.line("%s", p.styles.Muted.Render(strings.Repeat("=", ruleWidth)))
}

func (p *Printer) Success(format string, args ...any) {
	p.line("%s", p.styles.Success.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warning(format string, args ...any) {
	p.line("%s", p.styles.Warning.Render("⚠ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Error(format string, args ...any) {
	p.line("%s", p.styles.Error.Render("✗ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Info(format string, args ...any) {
	p.line("%s", p.styles.Info.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// Record prints the change report of one planned record.
func (p *Printer) Record(rec model.PlannedRecord) {
	p.line("")
	p.Info("User ID: %s (record %s)", rec.UserID, rec.RecordID)
	p.counts("  ", "removed", rec.Report)
}

// Plan prints every planned record followed by the dry-run summary.
func (p *Printer) Plan(plan *model.Plan) {
	p.Info("Scanned %d %s records", plan.Scanned, plan.Collection)
	for _, s := range plan.Skipped {
		p.Warning("Skipped record %s: %s", s.RecordID, s.Reason)
	}

	if len(plan.Records) == 0 {
		p.line("")
		p.Success("No duplicates or invalid data found! Collection is clean.")
		return
	}

	p.line("")
	p.Warning("Found %d records that need cleaning", len(plan.Records))
	p.line("")
	p.Rule()
	p.Warning("DRY RUN MODE - No changes will be made yet")
	p.Rule()

	for _, rec := range plan.Records {
		p.Record(rec)
		p.line("  %s", p.styles.Warning.Render("[DRY RUN] Would update this record"))
	}

	p.line("")
	p.Rule()
	p.Info("DRY RUN SUMMARY:")
	p.line("  Records to update: %d", len(plan.Records))
	p.counts("  ", "to remove", plan.Total)
	p.Rule()
}

// Result prints the outcome of every write and the final totals.
func (p *Printer) Result(plan *model.Plan, result *model.ApplyResult) {
	for _, o := range result.Outcomes {
		switch o.Status {
		case model.OutcomeUpdated:
			p.Success("%s: updated", o.RecordID)
		case model.OutcomeUnchanged:
			p.Warning("%s: already clean, nothing written", o.RecordID)
		case model.OutcomeLocked:
			p.Warning("%s: locked by another writer, skipped", o.RecordID)
		case model.OutcomeStale:
			p.Warning("%s: changed since the scan, skipped", o.RecordID)
		case model.OutcomeFailed:
			p.Error("%s: update failed: %s", o.RecordID, o.Error)
		}
	}

	p.Header("CLEANUP COMPLETE")
	p.Success("Updated %d %s records", result.Updated, plan.Collection)
	if result.Unchanged > 0 {
		p.Warning("%d records were already clean", result.Unchanged)
	}
	if result.Locked > 0 {
		p.Warning("%d records were locked and skipped", result.Locked)
	}
	if result.Stale > 0 {
		p.Warning("%d records changed since the scan; re-run to clean them", result.Stale)
	}
	if result.Failed > 0 {
		p.Error("%d records failed to update", result.Failed)
		return
	}
	p.Success("Removed %d duplicate semesters", plan.Total.DuplicateSemesters)
	p.Success("Removed %d duplicate months", plan.Total.DuplicateMonths)
	p.Success("Removed %d duplicate subjects", plan.Total.DuplicateSubjects)
	p.Success("Removed %d invalid subjects", plan.Total.InvalidSubjects)
	if plan.Total.CumulativeSubjects > 0 {
		p.Success("Removed %d cumulative subjects", plan.Total.CumulativeSubjects)
	}
}

func (p *Printer) counts(indent, verb string, r model.ChangeReport) {
	p.line("%sDuplicate semesters %s: %d", indent, verb, r.DuplicateSemesters)
	p.line("%sDuplicate months %s: %d", indent, verb, r.DuplicateMonths)
	p.line("%sDuplicate subjects %s: %d", indent, verb, r.DuplicateSubjects)
	p.line("%sInvalid subjects %s: %d", indent, verb, r.InvalidSubjects)
	if r.CumulativeSubjects > 0 {
		p.line("%sCumulative subjects %s: %d", indent, verb, r.CumulativeSubjects)
	}
	p.line("%sTotal subjects: %d → %d", indent, r.SubjectsBefore, r.SubjectsAfter)
}
