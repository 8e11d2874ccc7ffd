package printer_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/printer"
	"github.com/slok/nodeinit/internal/wizard"
)

func statusFixture() (wizard.Snapshot, []model.StepRecord) {
	snap := wizard.Snapshot{
		Session: model.Session{
			ClusterID: "c1",
			NodeJobID: "nj1",
			Cursor:    2,
			SelectedNodes: []model.Node{
				{ID: "n1", Hostname: "node1", IP: "10.0.0.1", SSHPort: 22, State: model.ExecStateActive},
				{ID: "n2", Hostname: "node2", IP: "10.0.0.2", SSHPort: 22, State: model.ExecStateInactive},
			},
			PageDisabled: model.PageDisabled{Next: true, Retry: false, Prev: true, Cancel: false},
			UpdatedAt:    time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
		},
		StepName: "detect",
		Steps: []wizard.StepView{
			{Index: 0, Label: "node.parseHostname", Status: wizard.StepStatusFinish},
			{Index: 1, Label: "node.chooseHostname", Status: wizard.StepStatusFinish},
			{Index: 2, Label: "node.detect", Status: wizard.StepStatusError},
			{Index: 3, Label: "node.check", Status: wizard.StepStatusWait},
		},
		Job: &wizard.JobStatus{NodeJobID: "nj1", State: model.JobExecStateError, Terminal: true, Degraded: true},
	}
	history := []model.StepRecord{
		{Sequence: 1, StepIndex: 0, StepName: "parse", Status: model.StepRecordStatusCommitted, CreatedAt: time.Now()},
		{Sequence: 2, StepIndex: 2, StepName: "detect", Status: model.StepRecordStatusFailed, Error: "job execution failed", CreatedAt: time.Now()},
	}

	return snap, history
}

func progressFixture(failed bool) model.JobProgress {
	last := model.JobExecStateOK
	nodeState := model.JobExecStateOK
	if failed {
		last = model.JobExecStateError
		nodeState = model.JobExecStateError
	}

	return model.JobProgress{
		JobID: "nj1",
		Kind:  model.JobKindNode,
		Nodes: []model.NodeExecProgress{
			{
				NodeID:   "n1",
				Hostname: "node1",
				Percent:  100,
				State:    model.JobExecStateOK,
				Steps:    []model.ExecStep{{Index: 1, Name: "cpu", State: model.JobExecStateOK}, {Index: 2, Name: "disk", State: model.JobExecStateOK}},
			},
			{
				NodeID:   "n2",
				Hostname: "node2",
				Percent:  100,
				State:    nodeState,
				Steps:    []model.ExecStep{{Index: 1, Name: "cpu", State: model.JobExecStateOK}, {Index: 2, Name: "disk", State: last}},
			},
		},
	}
}

func TestTablePrinterPrintWizardStatus(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintWizardStatus(statusFixture())
	require.NoError(err)

	out := buf.String()
	assert.Contains(out, "Cluster:    c1")
	assert.Contains(out, "Step:       2 (detect)")
	assert.Contains(out, "Node job:   nj1")
	assert.NotContains(out, "Job:        ")
	assert.Contains(out, "Actions:    retry, cancel")
	assert.Contains(out, "Updated:    2026-10-19 10:00:00 UTC")
	assert.Contains(out, "Job state:  ERROR")
	assert.Contains(out, "Job progress updates are failing")
	assert.Contains(out, "✗  2 node.detect")
	assert.Contains(out, "·  3 node.check")
	assert.Contains(out, "node2")
	assert.Contains(out, "INACTIVE")
	assert.Contains(out, "job execution failed")
}

func TestTablePrinterPrintWizardStatusWithoutActions(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	snap := wizard.Snapshot{Session: model.Session{ClusterID: "c1", PageDisabled: model.DefaultPageDisabled()}}
	err := p.PrintWizardStatus(snap, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Actions:    none")
}

func TestTablePrinterPrintJobProgress(t *testing.T) {
	tests := map[string]struct {
		progress    model.JobProgress
		degraded    bool
		expContains []string
		expMissing  []string
	}{
		"A successful job should print the success banner.": {
			progress:    progressFixture(false),
			expContains: []string{"node1", "100%", "2/2", "finished successfully"},
			expMissing:  []string{"✗", "failing"},
		},
		"A failed job should mark the failed step of the node.": {
			progress:    progressFixture(true),
			expContains: []string{"✗ disk", "1/2", "Job nj1 failed"},
		},
		"A job with failing updates should warn.": {
			progress:    model.JobProgress{JobID: "nj1"},
			degraded:    true,
			expContains: []string{"failing", "Job nj1 running"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			p := printer.NewTablePrinter(&buf)

			err := p.PrintJobProgress(test.progress, test.degraded)
			require.NoError(t, err)

			out := buf.String()
			for _, exp := range test.expContains {
				assert.Contains(t, out, exp)
			}
			for _, exp := range test.expMissing {
				assert.NotContains(t, out, exp)
			}
		})
	}
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}

func TestJSONPrinterPrintWizardStatus(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintWizardStatus(statusFixture())
	require.NoError(err)

	var got map[string]any
	require.NoError(json.Unmarshal(buf.Bytes(), &got))
	assert.Equal("c1", got["cluster_id"])
	assert.Equal(float64(2), got["cursor"])
	assert.Equal("detect", got["step"])
	assert.Len(got["steps"], 4)
	assert.Len(got["nodes"], 2)
	assert.Len(got["history"], 2)
	assert.Equal(map[string]any{
		"next_disabled":   true,
		"retry_disabled":  false,
		"prev_disabled":   true,
		"cancel_disabled": false,
	}, got["page"])
	assert.Equal("ERROR", got["job"].(map[string]any)["state"])
	assert.Equal("2026-10-19T10:00:00Z", got["updated_at"])
}

func TestJSONPrinterPrintJobProgress(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintJobProgress(progressFixture(true), true)
	require.NoError(err)

	out := buf.String()
	assert.Contains(out, `"state": "ERROR"`)
	assert.Contains(out, `"degraded": true`)
	assert.Contains(out, `"failed": true`)
	assert.Contains(out, `"kind": "node-job"`)
}

func TestJSONPrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.JSONEq(t, `{"message": "ok"}`, buf.String())
}
