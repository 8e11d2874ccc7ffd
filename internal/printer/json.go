package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/wizard"
)

// JSONPrinter prints onboarding information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type stepOutput struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Status string `json:"status"`
}

type nodeOutput struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`
	IP       string `json:"ip"`
	SSHPort  int    `json:"ssh_port"`
	State    string `json:"state"`
}

type pageOutput struct {
	NextDisabled   bool `json:"next_disabled"`
	RetryDisabled  bool `json:"retry_disabled"`
	PrevDisabled   bool `json:"prev_disabled"`
	CancelDisabled bool `json:"cancel_disabled"`
}

type jobStatusOutput struct {
	NodeJobID string `json:"node_job_id"`
	State     string `json:"state"`
	Terminal  bool   `json:"terminal"`
	Degraded  bool   `json:"degraded"`
}

type historyOutput struct {
	Sequence  int       `json:"sequence"`
	StepIndex int       `json:"step_index"`
	StepName  string    `json:"step_name"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type wizardStatusOutput struct {
	ClusterID string           `json:"cluster_id"`
	NodeJobID string           `json:"node_job_id,omitempty"`
	JobID     string           `json:"job_id,omitempty"`
	Cursor    int              `json:"cursor"`
	Step      string           `json:"step"`
	Steps     []stepOutput     `json:"steps"`
	Nodes     []nodeOutput     `json:"nodes"`
	Page      pageOutput       `json:"page"`
	Job       *jobStatusOutput `json:"job,omitempty"`
	History   []historyOutput  `json:"history,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

type execStepOutput struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	State string `json:"state"`
}

type nodeProgressOutput struct {
	NodeID   string           `json:"node_id"`
	Hostname string           `json:"hostname"`
	Percent  float64          `json:"percent"`
	State    string           `json:"state"`
	Failed   bool             `json:"failed"`
	Steps    []execStepOutput `json:"steps"`
}

type jobProgressOutput struct {
	JobID    string               `json:"job_id"`
	Kind     string               `json:"kind"`
	State    string               `json:"state"`
	Degraded bool                 `json:"degraded"`
	Nodes    []nodeProgressOutput `json:"nodes"`
}

type messageOutput struct {
	Message string `json:"message"`
}

// PrintWizardStatus prints the wizard state in JSON format.
func (j *JSONPrinter) PrintWizardStatus(snap wizard.Snapshot, history []model.StepRecord) error {
	sess := snap.Session
	output := wizardStatusOutput{
		ClusterID: sess.ClusterID,
		NodeJobID: sess.NodeJobID,
		JobID:     sess.JobID,
		Cursor:    sess.Cursor,
		Step:      snap.StepName,
		Steps:     make([]stepOutput, 0, len(snap.Steps)),
		Nodes:     make([]nodeOutput, 0, len(sess.SelectedNodes)),
		Page: pageOutput{
			NextDisabled:   sess.PageDisabled.Next,
			RetryDisabled:  sess.PageDisabled.Retry,
			PrevDisabled:   sess.PageDisabled.Prev,
			CancelDisabled: sess.PageDisabled.Cancel,
		},
	}

	for _, s := range snap.Steps {
		output.Steps = append(output.Steps, stepOutput{Index: s.Index, Label: s.Label, Status: string(s.Status)})
	}

	for _, n := range sess.SelectedNodes {
		output.Nodes = append(output.Nodes, nodeOutput{
			ID:       n.ID,
			Hostname: n.Hostname,
			IP:       n.IP,
			SSHPort:  n.SSHPort,
			State:    string(n.State),
		})
	}

	if snap.Job != nil {
		output.Job = &jobStatusOutput{
			NodeJobID: snap.Job.NodeJobID,
			State:     string(snap.Job.State),
			Terminal:  snap.Job.Terminal,
			Degraded:  snap.Job.Degraded,
		}
	}

	for _, r := range history {
		output.History = append(output.History, historyOutput{
			Sequence:  r.Sequence,
			StepIndex: r.StepIndex,
			StepName:  r.StepName,
			Status:    string(r.Status),
			Error:     r.Error,
			CreatedAt: r.CreatedAt.UTC(),
		})
	}

	if !sess.UpdatedAt.IsZero() {
		utcTime := sess.UpdatedAt.UTC()
		output.UpdatedAt = &utcTime
	}

	return j.encode(output)
}

// PrintJobProgress prints the job progress in JSON format.
func (j *JSONPrinter) PrintJobProgress(p model.JobProgress, degraded bool) error {
	output := jobProgressOutput{
		JobID:    p.JobID,
		Kind:     string(p.Kind),
		State:    string(p.OverallState()),
		Degraded: degraded,
		Nodes:    make([]nodeProgressOutput, 0, len(p.Nodes)),
	}

	for _, n := range p.Nodes {
		np := nodeProgressOutput{
			NodeID:   n.NodeID,
			Hostname: n.Hostname,
			Percent:  n.Percent,
			State:    string(n.State),
			Failed:   n.Failed(),
			Steps:    make([]execStepOutput, 0, len(n.Steps)),
		}
		for _, s := range n.Steps {
			np.Steps = append(np.Steps, execStepOutput{Index: s.Index, Name: s.Name, State: string(s.State)})
		}
		output.Nodes = append(output.Nodes, np)
	}

	return j.encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
