package steps_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/client/clientmock"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/wizard"
	"github.com/slok/nodeinit/internal/wizard/steps"
)

func TestNewOnboarding(t *testing.T) {
	require := require.New(t)

	_, err := steps.NewOnboarding(steps.Config{})
	require.Error(err)

	ss, err := steps.NewOnboarding(steps.Config{Client: &clientmock.MockClient{}})
	require.NoError(err)

	names := make([]string, 0, len(ss))
	for _, s := range ss {
		names = append(names, s.Name())
	}
	require.Equal([]string{"parse", "choose", "detect", "check", "dispatch", "start-worker", "done"}, names)

	for _, i := range []int{2, 3, 4, 5} {
		_, ok := ss[i].(wizard.JobHost)
		require.True(ok, "step %d should host a job", i)
	}
}

func TestParseStepCommit(t *testing.T) {
	tests := map[string]struct {
		req      model.ParseRequest
		mock     func(m *clientmock.MockClient)
		expData  wizard.Data
		expErrIs error
		expErr   bool
	}{
		"A valid request should return the parsed nodes.": {
			req: model.ParseRequest{Hostnames: []string{"node[1-2]"}, SSHPort: 2222},
			mock: func(m *clientmock.MockClient) {
				exp := client.ParseHostnamesRequest{ClusterID: "c1", Hostnames: []string{"node[1-2]"}, SSHPort: 2222}
				m.On("ParseHostnames", mock.Anything, exp).Once().Return([]model.Node{
					{ID: "n1", Hostname: "node1"},
					{ID: "n2", Hostname: "node2", SSHPort: 22},
				}, nil)
			},
			expData: wizard.Data{ClusterID: "c1", Nodes: []model.Node{
				{ID: "n1", Hostname: "node1", SSHPort: 2222},
				{ID: "n2", Hostname: "node2", SSHPort: 22},
			}},
		},
		"A request without hostnames should fail validation without calling the server.": {
			req:      model.ParseRequest{SSHPort: 22},
			mock:     func(m *clientmock.MockClient) {},
			expErrIs: model.ErrStepValidation,
		},
		"A request with an invalid port should fail validation.": {
			req:      model.ParseRequest{Hostnames: []string{"node1"}},
			mock:     func(m *clientmock.MockClient) {},
			expErrIs: model.ErrStepValidation,
		},
		"Hostnames resolving to no nodes should fail validation.": {
			req: model.ParseRequest{Hostnames: []string{"node1"}, SSHPort: 22},
			mock: func(m *clientmock.MockClient) {
				m.On("ParseHostnames", mock.Anything, mock.Anything).Once().Return([]model.Node{}, nil)
			},
			expErrIs: model.ErrStepValidation,
		},
		"A server failure should fail.": {
			req: model.ParseRequest{Hostnames: []string{"node1"}, SSHPort: 22},
			mock: func(m *clientmock.MockClient) {
				m.On("ParseHostnames", mock.Anything, mock.Anything).Once().Return(nil, fmt.Errorf("something"))
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &clientmock.MockClient{}
			test.mock(m)

			s, err := steps.NewParseStep(m)
			require.NoError(err)
			require.NoError(s.Mount(context.Background(), wizard.Data{ClusterID: "c1"}))
			s.SetRequest(test.req)

			data, err := s.Commit(context.Background())
			switch {
			case test.expErrIs != nil:
				assert.ErrorIs(err, test.expErrIs)
			case test.expErr:
				assert.Error(err)
			default:
				require.NoError(err)
				assert.Equal(test.expData, data)
			}

			// The input is kept untouched.
			assert.Equal(test.req, s.Request())
			m.AssertExpectations(t)
		})
	}
}

func TestChooseStepCommit(t *testing.T) {
	available := []model.Node{
		{ID: "n1", Hostname: "node1", SSHPort: 22},
		{ID: "n2", Hostname: "node2", SSHPort: 22},
		{ID: "n3", Hostname: "node3", SSHPort: 22},
	}

	tests := map[string]struct {
		selectAll bool
		selected  []string
		mock      func(m *clientmock.MockClient)
		expData   wizard.Data
		expErrIs  error
		expErr    bool
	}{
		"Selected nodes should be sent to detection.": {
			selected: []string{"node3", "node1", "node1"},
			mock: func(m *clientmock.MockClient) {
				exp := client.NodeJobRequest{ClusterID: "c1", SSHPort: 22, Nodes: []model.Node{available[2], available[0]}}
				m.On("Detect", mock.Anything, exp).Once().Return("nj1", nil)
			},
			expData: wizard.Data{ClusterID: "c1", NodeJobID: "nj1", Nodes: []model.Node{available[2], available[0]}},
		},
		"Selecting all should send every node.": {
			selectAll: true,
			mock: func(m *clientmock.MockClient) {
				m.On("Detect", mock.Anything, mock.Anything).Once().Return("nj1", nil)
			},
			expData: wizard.Data{ClusterID: "c1", NodeJobID: "nj1", Nodes: available},
		},
		"No selection should fail validation.": {
			mock:     func(m *clientmock.MockClient) {},
			expErrIs: model.ErrStepValidation,
		},
		"Unknown nodes should fail validation.": {
			selected: []string{"node9"},
			mock:     func(m *clientmock.MockClient) {},
			expErrIs: model.ErrStepValidation,
		},
		"A detection failure should fail.": {
			selected: []string{"node1"},
			mock: func(m *clientmock.MockClient) {
				m.On("Detect", mock.Anything, mock.Anything).Once().Return("", fmt.Errorf("something"))
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &clientmock.MockClient{}
			test.mock(m)

			s, err := steps.NewChooseStep(m)
			require.NoError(err)
			require.NoError(s.Mount(context.Background(), wizard.Data{ClusterID: "c1", Nodes: available}))
			assert.Equal(available, s.Available())

			if test.selectAll {
				s.SelectAll()
			} else {
				s.Select(test.selected...)
			}

			data, err := s.Commit(context.Background())
			switch {
			case test.expErrIs != nil:
				assert.ErrorIs(err, test.expErrIs)
			case test.expErr:
				assert.Error(err)
			default:
				require.NoError(err)
				assert.Equal(test.expData, data)
			}
			m.AssertExpectations(t)
		})
	}
}

func progress(states ...model.JobExecState) *model.JobProgress {
	p := &model.JobProgress{JobID: "nj1", Kind: model.JobKindNode}
	for i, st := range states {
		p.Nodes = append(p.Nodes, model.NodeExecProgress{NodeID: fmt.Sprintf("n%d", i+1), State: st})
	}
	return p
}

func newJobStep(t *testing.T, m *clientmock.MockClient, filter func(model.JobProgress, []model.Node) []model.Node) *steps.JobStep {
	t.Helper()
	s, err := steps.NewJobStep(steps.JobStepConfig{
		Name:     "check",
		Client:   m,
		Retry:    m.Check,
		Next:     m.Dispatch,
		Filter:   filter,
		Interval: time.Millisecond,
	})
	require.NoError(t, err)
	return s
}

func TestNewJobStep(t *testing.T) {
	m := &clientmock.MockClient{}
	tests := map[string]struct {
		config steps.JobStepConfig
		expErr bool
	}{
		"A valid config should not fail.": {
			config: steps.JobStepConfig{Name: "check", Client: m, Retry: m.Check, Next: m.Dispatch},
		},
		"Missing name should fail.": {
			config: steps.JobStepConfig{Client: m, Retry: m.Check, Next: m.Dispatch},
			expErr: true,
		},
		"Missing client should fail.": {
			config: steps.JobStepConfig{Name: "check", Retry: m.Check, Next: m.Dispatch},
			expErr: true,
		},
		"Missing retry should fail.": {
			config: steps.JobStepConfig{Name: "check", Client: m, Next: m.Dispatch},
			expErr: true,
		},
		"Missing next should fail.": {
			config: steps.JobStepConfig{Name: "check", Client: m, Retry: m.Check},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := steps.NewJobStep(test.config)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJobStepMountWithoutJob(t *testing.T) {
	s := newJobStep(t, &clientmock.MockClient{}, nil)
	err := s.Mount(context.Background(), wizard.Data{ClusterID: "c1"})
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestJobStepCommit(t *testing.T) {
	nodes := []model.Node{{ID: "n1", Hostname: "node1", SSHPort: 2222}, {ID: "n2", Hostname: "node2", SSHPort: 2222}}

	tests := map[string]struct {
		mock     func(m *clientmock.MockClient)
		expData  wizard.Data
		expState model.JobExecState
		expErrIs error
		expErr   bool
	}{
		"A successful job should submit the next step.": {
			mock: func(m *clientmock.MockClient) {
				m.On("GetNodeJobProgress", mock.Anything, "nj1").Once().Return(progress(model.JobExecStateRunning, model.JobExecStateOK), nil)
				m.On("GetNodeJobProgress", mock.Anything, "nj1").Once().Return(progress(model.JobExecStateOK, model.JobExecStateOK), nil)
				exp := client.NodeJobRequest{ClusterID: "c1", SSHPort: 2222, Nodes: nodes}
				m.On("Dispatch", mock.Anything, exp).Once().Return("nj2", nil)
			},
			expState: model.JobExecStateOK,
			expData:  wizard.Data{ClusterID: "c1", NodeJobID: "nj2", JobID: "j1", Nodes: nodes},
		},
		"A failed job should not commit.": {
			mock: func(m *clientmock.MockClient) {
				m.On("GetNodeJobProgress", mock.Anything, "nj1").Once().Return(progress(model.JobExecStateOK, model.JobExecStateError), nil)
			},
			expState: model.JobExecStateError,
			expErrIs: model.ErrJobExecution,
		},
		"Fetch errors should be retried until the job finishes.": {
			mock: func(m *clientmock.MockClient) {
				m.On("GetNodeJobProgress", mock.Anything, "nj1").Once().Return(nil, fmt.Errorf("something"))
				m.On("GetNodeJobProgress", mock.Anything, "nj1").Once().Return(progress(model.JobExecStateOK, model.JobExecStateOK), nil)
				m.On("Dispatch", mock.Anything, mock.Anything).Once().Return("nj2", nil)
			},
			expState: model.JobExecStateOK,
			expData:  wizard.Data{ClusterID: "c1", NodeJobID: "nj2", JobID: "j1", Nodes: nodes},
		},
		"A failure submitting the next step should fail.": {
			mock: func(m *clientmock.MockClient) {
				m.On("GetNodeJobProgress", mock.Anything, "nj1").Once().Return(progress(model.JobExecStateOK, model.JobExecStateOK), nil)
				m.On("Dispatch", mock.Anything, mock.Anything).Once().Return("", fmt.Errorf("something"))
			},
			expState: model.JobExecStateOK,
			expErr:   true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &clientmock.MockClient{}
			test.mock(m)

			s := newJobStep(t, m, nil)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			require.NoError(s.Mount(ctx, wizard.Data{ClusterID: "c1", NodeJobID: "nj1", JobID: "j1", Nodes: nodes}))
			require.NoError(s.Wait(ctx))
			defer s.Unmount()

			st := s.JobStatus()
			assert.True(st.Terminal)
			assert.Equal(test.expState, st.State)
			assert.Equal("nj1", st.NodeJobID)

			data, err := s.Commit(ctx)
			switch {
			case test.expErrIs != nil:
				assert.ErrorIs(err, test.expErrIs)
			case test.expErr:
				assert.Error(err)
			default:
				require.NoError(err)
				assert.Equal(test.expData, data)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestJobStepCommitNotReady(t *testing.T) {
	m := &clientmock.MockClient{}
	m.On("GetNodeJobProgress", mock.Anything, "nj1").Return(progress(model.JobExecStateRunning), nil)

	s := newJobStep(t, m, nil)
	require.NoError(t, s.Mount(context.Background(), wizard.Data{ClusterID: "c1", NodeJobID: "nj1", Nodes: []model.Node{{ID: "n1"}}}))
	defer s.Unmount()

	_, err := s.Commit(context.Background())
	assert.ErrorIs(t, err, model.ErrStepNotReady)

	_, err = s.Retry(context.Background())
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestJobStepRetry(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	nodes := []model.Node{{ID: "n1", Hostname: "node1", SSHPort: 22}}
	m := &clientmock.MockClient{}
	m.On("GetNodeJobProgress", mock.Anything, "nj1").Once().Return(progress(model.JobExecStateError), nil)
	m.On("Check", mock.Anything, client.NodeJobRequest{ClusterID: "c1", SSHPort: 22, Nodes: nodes}).Once().Return("nj1-retry", nil)
	m.On("GetNodeJobProgress", mock.Anything, "nj1-retry").Once().Return(progress(model.JobExecStateOK), nil)
	m.On("Dispatch", mock.Anything, mock.Anything).Once().Return("nj2", nil)

	s := newJobStep(t, m, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	defer s.Unmount()

	require.NoError(s.Mount(ctx, wizard.Data{ClusterID: "c1", NodeJobID: "nj1", Nodes: nodes}))
	require.NoError(s.Wait(ctx))
	_, err := s.Commit(ctx)
	require.ErrorIs(err, model.ErrJobExecution)

	id, err := s.Retry(ctx)
	require.NoError(err)
	assert.Equal("nj1-retry", id)

	require.NoError(s.Wait(ctx))
	st := s.JobStatus()
	assert.Equal("nj1-retry", st.NodeJobID)
	assert.Equal(model.JobExecStateOK, st.State)

	data, err := s.Commit(ctx)
	require.NoError(err)
	assert.Equal("nj2", data.NodeJobID)
	m.AssertExpectations(t)
}

func TestJobStepRetryWithUnknownRestartedJob(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	nodes := []model.Node{{ID: "n1", Hostname: "node1", SSHPort: 22}}
	m := &clientmock.MockClient{}
	m.On("GetNodeJobProgress", mock.Anything, "nj1").Once().Return(progress(model.JobExecStateError), nil)
	m.On("Check", mock.Anything, mock.Anything).Once().Return("nj2", nil)
	m.On("GetNodeJobProgress", mock.Anything, "nj2").Return(nil, fmt.Errorf("something"))

	s := newJobStep(t, m, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	defer s.Unmount()

	require.NoError(s.Mount(ctx, wizard.Data{ClusterID: "c1", NodeJobID: "nj1", Nodes: nodes}))
	require.NoError(s.Wait(ctx))
	require.Equal(model.JobExecStateError, s.JobStatus().State)

	id, err := s.Retry(ctx)
	require.NoError(err)
	assert.Equal("nj2", id)

	// The failed job progress must not be reported for the restarted job.
	st := s.JobStatus()
	assert.Equal("nj2", st.NodeJobID)
	assert.Equal(model.JobExecStateRunning, st.State)
	assert.Nil(st.Progress)

	_, err = s.Retry(ctx)
	assert.ErrorIs(err, model.ErrNotValid)
	m.AssertNumberOfCalls(t, "Check", 1)
}

func TestDetectStepDropsUnreachableNodes(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	nodes := []model.Node{
		{ID: "n1", Hostname: "node1", State: model.ExecStateActive},
		{ID: "n2", Hostname: "node2", State: model.ExecStateInactive},
		{ID: "n3", Hostname: "node3"},
	}
	m := &clientmock.MockClient{}
	m.On("GetNodeJobProgress", mock.Anything, "nj1").Once().Return(progress(model.JobExecStateOK, model.JobExecStateOK, model.JobExecStateOK), nil)
	m.On("Check", mock.Anything, mock.Anything).Once().Return("nj2", nil)

	ss, err := steps.NewOnboarding(steps.Config{Client: m, Interval: time.Millisecond})
	require.NoError(err)
	detect := ss[2].(*steps.JobStep)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	defer detect.Unmount()

	require.NoError(detect.Mount(ctx, wizard.Data{ClusterID: "c1", NodeJobID: "nj1", Nodes: nodes}))
	require.NoError(detect.Wait(ctx))

	data, err := detect.Commit(ctx)
	require.NoError(err)
	assert.Equal([]model.Node{nodes[0], nodes[2]}, data.Nodes)
}

func TestJobStepCommitWithoutNodesLeft(t *testing.T) {
	m := &clientmock.MockClient{}
	m.On("GetNodeJobProgress", mock.Anything, "nj1").Once().Return(progress(model.JobExecStateOK), nil)

	s := newJobStep(t, m, func(model.JobProgress, []model.Node) []model.Node { return nil })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	defer s.Unmount()

	require.NoError(t, s.Mount(ctx, wizard.Data{ClusterID: "c1", NodeJobID: "nj1", Nodes: []model.Node{{ID: "n1"}}}))
	require.NoError(t, s.Wait(ctx))

	_, err := s.Commit(ctx)
	assert.ErrorIs(t, err, model.ErrStepValidation)
}

func TestStartWorkerStepAddsNodes(t *testing.T) {
	require := require.New(t)

	m := &clientmock.MockClient{}
	m.On("GetNodeJobProgress", mock.Anything, "nj1").Once().Return(progress(model.JobExecStateOK), nil)
	m.On("AddNodes", mock.Anything, mock.Anything).Once().Return(nil)

	ss, err := steps.NewOnboarding(steps.Config{Client: m, Interval: time.Millisecond})
	require.NoError(err)
	worker := ss[5].(*steps.JobStep)
	require.Equal("start-worker", worker.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	defer worker.Unmount()

	require.NoError(worker.Mount(ctx, wizard.Data{ClusterID: "c1", NodeJobID: "nj1", Nodes: []model.Node{{ID: "n1"}}}))
	require.NoError(worker.Wait(ctx))

	data, err := worker.Commit(ctx)
	require.NoError(err)
	require.Empty(data.NodeJobID)
	m.AssertExpectations(t)
}

func TestDoneStep(t *testing.T) {
	s := steps.NewDoneStep()
	require.NoError(t, s.Mount(context.Background(), wizard.Data{Nodes: []model.Node{{ID: "n1"}}}))
	assert.Equal(t, []model.Node{{ID: "n1"}}, s.Nodes())

	_, err := s.Commit(context.Background())
	assert.ErrorIs(t, err, model.ErrStepValidation)
}
