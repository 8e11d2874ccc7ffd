package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/procedure"
	"github.com/slok/nodeinit/internal/wizard"
)

// TablePrinter prints onboarding information in a human friendly table format.
type TablePrinter struct {
	writer io.Writer

	success lipgloss.Style
	process lipgloss.Style
	failure lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
}

// NewTablePrinter creates a new table printer, colors are only used when the
// writer is a terminal that supports them.
func NewTablePrinter(w io.Writer) *TablePrinter {
	r := lipgloss.NewRenderer(w)
	return &TablePrinter{
		writer:  w,
		success: r.NewStyle().Foreground(lipgloss.Color("76")),
		process: r.NewStyle().Foreground(lipgloss.Color("75")),
		failure: r.NewStyle().Foreground(lipgloss.Color("204")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("243")),
	}
}

// PrintWizardStatus prints the wizard step list and the current step state.
func (t *TablePrinter) PrintWizardStatus(snap wizard.Snapshot, history []model.StepRecord) error {
	sess := snap.Session
	fmt.Fprintf(t.writer, "Cluster:    %s\n", sess.ClusterID)
	fmt.Fprintf(t.writer, "Step:       %d (%s)\n", sess.Cursor, snap.StepName)
	if sess.NodeJobID != "" {
		fmt.Fprintf(t.writer, "Node job:   %s\n", sess.NodeJobID)
	}
	if sess.JobID != "" {
		fmt.Fprintf(t.writer, "Job:        %s\n", sess.JobID)
	}
	fmt.Fprintf(t.writer, "Actions:    %s\n", t.actions(sess.PageDisabled))
	if !sess.UpdatedAt.IsZero() {
		fmt.Fprintf(t.writer, "Updated:    %s\n", FormatTimestamp(sess.UpdatedAt))
	}

	if snap.Job != nil {
		fmt.Fprintf(t.writer, "Job state:  %s\n", t.jobState(snap.Job.State))
		if snap.Job.Degraded {
			fmt.Fprintln(t.writer, t.warn.Render("!")+" Job progress updates are failing, showing the last known state")
		}
	}

	fmt.Fprintln(t.writer)
	for _, s := range snap.Steps {
		fmt.Fprintf(t.writer, "  %s %2d %s\n", t.stepMark(s.Status), s.Index, s.Label)
	}

	if len(sess.SelectedNodes) > 0 {
		fmt.Fprintln(t.writer)
		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "HOSTNAME\tIP\tSSH PORT\tSTATE")
		for _, n := range sess.SelectedNodes {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", n.Hostname, n.IP, n.SSHPort, t.nodeState(n.State))
		}
		tw.Flush()
	}

	if len(history) > 0 {
		fmt.Fprintln(t.writer)
		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tSTEP\tRESULT\tWHEN\tERROR")
		for _, r := range history {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Sequence, r.StepName, r.Status, TimeAgo(r.CreatedAt), r.Error)
		}
		tw.Flush()
	}

	return nil
}

// PrintJobProgress prints the per node progress of a job and its result banner.
func (t *TablePrinter) PrintJobProgress(p model.JobProgress, degraded bool) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HOSTNAME\tPROGRESS\tSTEPS\tSTATE")
	for _, n := range p.Nodes {
		done := 0
		for _, s := range n.Steps {
			if s.State == model.JobExecStateOK {
				done++
			}
		}

		state := t.jobState(n.State)
		if s, ok := n.LastErrorStep(); ok {
			state = t.failure.Render("✗") + " " + s.Name
		}
		fmt.Fprintf(tw, "%s\t%.0f%%\t%d/%d\t%s\n", n.Hostname, n.Percent, done, len(n.Steps), state)
	}
	tw.Flush()

	if degraded {
		fmt.Fprintln(t.writer, t.warn.Render("!")+" Job progress updates are failing, showing the last known state")
	}

	switch p.OverallState() {
	case model.JobExecStateOK:
		fmt.Fprintln(t.writer, t.success.Render("✓")+" Job "+p.JobID+" finished successfully")
	case model.JobExecStateError:
		fmt.Fprintln(t.writer, t.failure.Render("✗")+" Job "+p.JobID+" failed")
	default:
		fmt.Fprintln(t.writer, t.process.Render("●")+" Job "+p.JobID+" running")
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func (t *TablePrinter) stepMark(s wizard.StepStatus) string {
	switch s {
	case wizard.StepStatusFinish:
		return t.success.Render("✓")
	case wizard.StepStatusProcess:
		return t.process.Render("▸")
	case wizard.StepStatusError:
		return t.failure.Render("✗")
	default:
		return t.muted.Render("·")
	}
}

func (t *TablePrinter) actions(pd model.PageDisabled) string {
	var enabled []string
	if !pd.Prev {
		enabled = append(enabled, "prev")
	}
	if !pd.Next {
		enabled = append(enabled, "next")
	}
	if !pd.Retry {
		enabled = append(enabled, "retry")
	}
	if !pd.Cancel {
		enabled = append(enabled, "cancel")
	}
	if len(enabled) == 0 {
		return t.muted.Render("none")
	}

	return strings.Join(enabled, ", ")
}

func (t *TablePrinter) jobState(s model.JobExecState) string {
	switch s {
	case model.JobExecStateOK:
		return t.success.Render(string(s))
	case model.JobExecStateError:
		return t.failure.Render(string(s))
	default:
		return t.process.Render(string(s))
	}
}

// nodeState renders unknown states as they are.
func (t *TablePrinter) nodeState(s model.ExecState) string {
	d, err := procedure.DisplayOf(s)
	if err != nil {
		return string(s)
	}

	switch d.Severity {
	case procedure.SeveritySuccess:
		return t.success.Render(string(s))
	case procedure.SeverityError:
		return t.failure.Render(string(s))
	default:
		return t.process.Render(string(s))
	}
}
