package wizard_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/nodeinit/internal/client/clientmock"
	"github.com/slok/nodeinit/internal/model"
	"github.com/slok/nodeinit/internal/session"
	"github.com/slok/nodeinit/internal/wizard"
)

type testStep struct {
	name      string
	out       wizard.Data
	commitErr error
	mountErr  error

	commits  int
	mounts   []wizard.Data
	unmounts int
}

func (s *testStep) Name() string { return s.name }

func (s *testStep) Commit(context.Context) (wizard.Data, error) {
	s.commits++
	if s.commitErr != nil {
		return wizard.Data{}, s.commitErr
	}
	return s.out, nil
}

func (s *testStep) Mount(_ context.Context, in wizard.Data) error {
	s.mounts = append(s.mounts, in)
	return s.mountErr
}

func (s *testStep) Unmount() { s.unmounts++ }

type testJobStep struct {
	testStep
	status   wizard.JobStatus
	retryID  string
	retryErr error
}

func (s *testJobStep) JobStatus() wizard.JobStatus { return s.status }

func (s *testJobStep) Wait(context.Context) error { return nil }

func (s *testJobStep) Retry(context.Context) (string, error) { return s.retryID, s.retryErr }

// newTestSteps returns a 7 step onboarding sequence, steps 2 to 5 gate on jobs.
func newTestSteps() []wizard.Step {
	return []wizard.Step{
		&testStep{name: "parse", out: wizard.Data{Nodes: []model.Node{{ID: "n1", Hostname: "node1"}}}},
		&testStep{name: "choose", out: wizard.Data{NodeJobID: "nj-detect", Nodes: []model.Node{{ID: "n1", Hostname: "node1"}}}},
		&testJobStep{testStep: testStep{name: "detect", out: wizard.Data{NodeJobID: "nj-check"}}},
		&testJobStep{testStep: testStep{name: "check", out: wizard.Data{NodeJobID: "nj-dispatch"}}},
		&testJobStep{testStep: testStep{name: "dispatch", out: wizard.Data{NodeJobID: "nj-worker"}}},
		&testJobStep{testStep: testStep{name: "start-worker"}},
		&testStep{name: "done", commitErr: fmt.Errorf("finished: %w", model.ErrStepValidation)},
	}
}

func stepAt(steps []wizard.Step, i int) *testStep {
	switch s := steps[i].(type) {
	case *testStep:
		return s
	case *testJobStep:
		return &s.testStep
	}
	return nil
}

func newOrchestrator(t *testing.T, m *clientmock.MockClient, sess *session.Session, steps []wizard.Step) *wizard.Orchestrator {
	t.Helper()
	o, err := wizard.NewOrchestrator(wizard.OrchestratorConfig{
		Client:  m,
		Session: sess,
		Steps:   steps,
	})
	require.NoError(t, err)
	return o
}

func TestNewOrchestrator(t *testing.T) {
	tests := map[string]struct {
		config wizard.OrchestratorConfig
		expErr bool
	}{
		"A valid config should not fail.": {
			config: wizard.OrchestratorConfig{Client: &clientmock.MockClient{}, Session: session.New("c1"), Steps: newTestSteps()},
		},
		"Missing client should fail.": {
			config: wizard.OrchestratorConfig{Session: session.New("c1"), Steps: newTestSteps()},
			expErr: true,
		},
		"Missing session should fail.": {
			config: wizard.OrchestratorConfig{Client: &clientmock.MockClient{}, Steps: newTestSteps()},
			expErr: true,
		},
		"A session without cluster should fail.": {
			config: wizard.OrchestratorConfig{Client: &clientmock.MockClient{}, Session: session.New(""), Steps: newTestSteps()},
			expErr: true,
		},
		"Missing steps should fail.": {
			config: wizard.OrchestratorConfig{Client: &clientmock.MockClient{}, Session: session.New("c1")},
			expErr: true,
		},
		"Nil steps should fail.": {
			config: wizard.OrchestratorConfig{Client: &clientmock.MockClient{}, Session: session.New("c1"), Steps: []wizard.Step{nil}},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := wizard.NewOrchestrator(test.config)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrchestratorResume(t *testing.T) {
	tests := map[string]struct {
		mock         func(m *clientmock.MockClient)
		expErr       error
		expCursor    int
		expNodeJobID string
		expJobID     string
		expMounted   int
		expCurrent   string
	}{
		"A procedure on check should resume on the check step with its node job.": {
			mock: func(m *clientmock.MockClient) {
				m.On("GetProcedure", mock.Anything, "c1").Once().Return(&model.Procedure{
					ClusterID: "c1",
					NodeJobID: "J1",
					State:     model.ProcedureStateCheck,
					Nodes:     []model.Node{{ID: "n1"}},
				}, nil)
			},
			expCursor:    3,
			expNodeJobID: "J1",
			expMounted:   3,
			expCurrent:   "check",
		},
		"A cluster without procedure should start from the beginning.": {
			mock: func(m *clientmock.MockClient) {
				m.On("GetProcedure", mock.Anything, "c1").Once().Return(nil, fmt.Errorf("D1001: %w", model.ErrNotFound))
			},
			expCursor:  0,
			expMounted: 0,
			expCurrent: "parse",
		},
		"A procedure beyond the node steps should render the done step.": {
			mock: func(m *clientmock.MockClient) {
				m.On("GetProcedure", mock.Anything, "c1").Once().Return(&model.Procedure{
					ClusterID: "c1",
					JobID:     "cj1",
					State:     model.ProcedureStateDeploying,
				}, nil)
			},
			expCursor:  11,
			expJobID:   "cj1",
			expMounted: 6,
			expCurrent: "done",
		},
		"An unknown procedure state should fail and keep the cursor.": {
			mock: func(m *clientmock.MockClient) {
				m.On("GetProcedure", mock.Anything, "c1").Once().Return(&model.Procedure{
					ClusterID: "c1",
					State:     "PROCEDURE_SOMETHING",
				}, nil)
			},
			expErr:       model.ErrUnknownState,
			expCursor:    2,
			expNodeJobID: "old",
			expMounted:   -1,
			expCurrent:   "detect",
		},
		"A failure getting the procedure should fail and keep the cursor.": {
			mock: func(m *clientmock.MockClient) {
				m.On("GetProcedure", mock.Anything, "c1").Once().Return(nil, fmt.Errorf("something"))
			},
			expErr:       fmt.Errorf("something"),
			expCursor:    2,
			expNodeJobID: "old",
			expMounted:   -1,
			expCurrent:   "detect",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &clientmock.MockClient{}
			test.mock(m)

			sess := session.New("c1")
			sess.SetCursor(2)
			sess.SetNodeJobID("old")
			steps := newTestSteps()
			o := newOrchestrator(t, m, sess, steps)

			err := o.Resume(context.Background())
			switch {
			case test.expErr == nil:
				require.NoError(err)
			case test.expErr == model.ErrUnknownState:
				assert.ErrorIs(err, test.expErr)
			default:
				assert.Error(err)
			}

			assert.Equal(test.expCursor, o.Cursor())
			assert.Equal(test.expNodeJobID, sess.NodeJobID())
			assert.Equal(test.expJobID, sess.JobID())
			assert.Equal(test.expCurrent, o.Current().Name())

			for i := range steps {
				mounts := stepAt(steps, i).mounts
				if i == test.expMounted {
					require.Len(mounts, 1)
					assert.Equal("c1", mounts[0].ClusterID)
					assert.Equal(test.expNodeJobID, mounts[0].NodeJobID)
				} else {
					assert.Empty(mounts)
				}
			}
			m.AssertExpectations(t)
		})
	}
}

func TestOrchestratorResumeAfterResetClearsJobs(t *testing.T) {
	assert := assert.New(t)

	m := &clientmock.MockClient{}
	m.On("GetProcedure", mock.Anything, "c1").Once().Return(nil, model.ErrNotFound)

	sess := session.New("c1")
	sess.SetCursor(4)
	sess.SetNodeJobID("nj1")
	sess.SetJobID("j1")
	sess.SetSelectedNodes([]model.Node{{ID: "n1"}})
	o := newOrchestrator(t, m, sess, newTestSteps())

	assert.NoError(o.Resume(context.Background()))
	assert.Equal(0, sess.Cursor())
	assert.Empty(sess.NodeJobID())
	assert.Empty(sess.JobID())
	assert.Empty(sess.SelectedNodes())
}

func TestOrchestratorAdvance(t *testing.T) {
	t.Run("A successful commit should move to the next step with its output.", func(t *testing.T) {
		assert := assert.New(t)
		require := require.New(t)

		m := &clientmock.MockClient{}
		m.On("GetProcedure", mock.Anything, "c1").Once().Return(nil, model.ErrNotFound)
		steps := newTestSteps()
		sess := session.New("c1")
		o := newOrchestrator(t, m, sess, steps)
		require.NoError(o.Resume(context.Background()))

		require.NoError(o.Advance(context.Background()))
		assert.Equal(1, o.Cursor())
		assert.Equal(1, stepAt(steps, 0).unmounts)
		require.Len(stepAt(steps, 1).mounts, 1)
		assert.Equal("c1", stepAt(steps, 1).mounts[0].ClusterID)
		assert.Equal([]model.Node{{ID: "n1", Hostname: "node1"}}, sess.SelectedNodes())

		require.NoError(o.Advance(context.Background()))
		assert.Equal(2, o.Cursor())
		assert.Equal("nj-detect", sess.NodeJobID())
		require.Len(stepAt(steps, 2).mounts, 1)
		assert.Equal("nj-detect", stepAt(steps, 2).mounts[0].NodeJobID)
	})

	t.Run("A failed commit should not change anything.", func(t *testing.T) {
		assert := assert.New(t)
		require := require.New(t)

		m := &clientmock.MockClient{}
		m.On("GetProcedure", mock.Anything, "c1").Once().Return(&model.Procedure{
			ClusterID: "c1",
			NodeJobID: "J1",
			State:     model.ProcedureStateCheck,
		}, nil)
		steps := newTestSteps()
		stepAt(steps, 3).commitErr = fmt.Errorf("not yet: %w", model.ErrStepNotReady)
		sess := session.New("c1")
		o := newOrchestrator(t, m, sess, steps)
		require.NoError(o.Resume(context.Background()))

		err := o.Advance(context.Background())
		assert.ErrorIs(err, model.ErrStepNotReady)
		assert.Equal(3, o.Cursor())
		assert.Equal("J1", sess.NodeJobID())
		assert.Equal(1, stepAt(steps, 3).commits)
		assert.Equal(0, stepAt(steps, 3).unmounts)
		assert.Empty(stepAt(steps, 4).mounts)
	})

	t.Run("Only the current step should be committed.", func(t *testing.T) {
		assert := assert.New(t)
		require := require.New(t)

		m := &clientmock.MockClient{}
		m.On("GetProcedure", mock.Anything, "c1").Once().Return(&model.Procedure{ClusterID: "c1", NodeJobID: "J1", State: model.ProcedureStateDispatch}, nil)
		steps := newTestSteps()
		o := newOrchestrator(t, m, session.New("c1"), steps)
		require.NoError(o.Resume(context.Background()))
		require.NoError(o.Advance(context.Background()))

		for i := range steps {
			exp := 0
			if i == 4 {
				exp = 1
			}
			assert.Equal(exp, stepAt(steps, i).commits, "step %d", i)
		}
	})

	t.Run("The done step should not advance.", func(t *testing.T) {
		assert := assert.New(t)
		require := require.New(t)

		m := &clientmock.MockClient{}
		m.On("GetProcedure", mock.Anything, "c1").Once().Return(&model.Procedure{ClusterID: "c1", State: model.ProcedureStateAddNodeDone}, nil)
		o := newOrchestrator(t, m, session.New("c1"), newTestSteps())
		require.NoError(o.Resume(context.Background()))

		assert.True(o.Terminal())
		err := o.Advance(context.Background())
		assert.ErrorIs(err, model.ErrStepValidation)
		assert.Equal(6, o.Cursor())
	})
}

func TestOrchestratorPrevious(t *testing.T) {
	tests := map[string]struct {
		procedure *model.Procedure
		expErr    bool
		expCursor int
	}{
		"Going back from a local step without jobs should be allowed.": {
			procedure: &model.Procedure{ClusterID: "c1", State: model.ProcedureStateParseHostname, Nodes: []model.Node{{ID: "n1"}}},
			expCursor: 0,
		},
		"Going back once a server job exists should be refused.": {
			procedure: &model.Procedure{ClusterID: "c1", NodeJobID: "J1", State: model.ProcedureStateDetect},
			expErr:    true,
			expCursor: 2,
		},
		"Going back from the first step should be refused.": {
			procedure: &model.Procedure{ClusterID: "c1", State: model.ProcedureStateBeforeParse},
			expErr:    true,
			expCursor: 0,
		},
		"Going back from the done step should be refused.": {
			procedure: &model.Procedure{ClusterID: "c1", State: model.ProcedureStateAddNodeDone},
			expErr:    true,
			expCursor: 6,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &clientmock.MockClient{}
			m.On("GetProcedure", mock.Anything, "c1").Once().Return(test.procedure, nil)
			sess := session.New("c1")
			o := newOrchestrator(t, m, sess, newTestSteps())
			require.NoError(o.Resume(context.Background()))
			assert.Equal(test.expErr, sess.PageDisabled().Prev)

			err := o.Previous(context.Background())
			if test.expErr {
				assert.ErrorIs(err, model.ErrNotValid)
			} else {
				assert.NoError(err)
			}
			assert.Equal(test.expCursor, o.Cursor())
		})
	}
}

func TestOrchestratorPageDisabled(t *testing.T) {
	tests := map[string]struct {
		state  model.ProcedureState
		status wizard.JobStatus
		exp    model.PageDisabled
	}{
		"A local step should allow next.": {
			state: model.ProcedureStateBeforeParse,
			exp:   model.PageDisabled{Next: false, Retry: true, Prev: true, Cancel: true},
		},
		"A running job should block next and allow cancel.": {
			state:  model.ProcedureStateCheck,
			status: wizard.JobStatus{State: model.JobExecStateRunning},
			exp:    model.PageDisabled{Next: true, Retry: true, Prev: true, Cancel: false},
		},
		"A successful job should allow next.": {
			state:  model.ProcedureStateCheck,
			status: wizard.JobStatus{State: model.JobExecStateOK, Terminal: true},
			exp:    model.PageDisabled{Next: false, Retry: true, Prev: true, Cancel: true},
		},
		"A failed job should allow retry and block next.": {
			state:  model.ProcedureStateCheck,
			status: wizard.JobStatus{State: model.JobExecStateError, Terminal: true},
			exp:    model.PageDisabled{Next: true, Retry: false, Prev: true, Cancel: true},
		},
		"The done step should block next.": {
			state: model.ProcedureStateAddNodeDone,
			exp:   model.PageDisabled{Next: true, Retry: true, Prev: true, Cancel: true},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			m := &clientmock.MockClient{}
			m.On("GetProcedure", mock.Anything, "c1").Once().Return(&model.Procedure{ClusterID: "c1", NodeJobID: "J1", State: test.state}, nil)
			steps := newTestSteps()
			steps[3].(*testJobStep).status = test.status
			sess := session.New("c1")
			o := newOrchestrator(t, m, sess, steps)
			require.NoError(o.Resume(context.Background()))

			require.Equal(test.exp, sess.PageDisabled())
			require.Equal(test.exp, o.Refresh())
		})
	}
}

func TestOrchestratorRetry(t *testing.T) {
	t.Run("Retrying a job step should store the new node job.", func(t *testing.T) {
		require := require.New(t)

		m := &clientmock.MockClient{}
		m.On("GetProcedure", mock.Anything, "c1").Once().Return(&model.Procedure{ClusterID: "c1", NodeJobID: "J1", State: model.ProcedureStateCheck}, nil)
		steps := newTestSteps()
		steps[3].(*testJobStep).retryID = "J2"
		sess := session.New("c1")
		o := newOrchestrator(t, m, sess, steps)
		require.NoError(o.Resume(context.Background()))

		require.NoError(o.Retry(context.Background()))
		require.Equal("J2", sess.NodeJobID())
		require.Equal(3, o.Cursor())
	})

	t.Run("Retrying a failing job step should keep the node job.", func(t *testing.T) {
		require := require.New(t)

		m := &clientmock.MockClient{}
		m.On("GetProcedure", mock.Anything, "c1").Once().Return(&model.Procedure{ClusterID: "c1", NodeJobID: "J1", State: model.ProcedureStateCheck}, nil)
		steps := newTestSteps()
		steps[3].(*testJobStep).retryErr = fmt.Errorf("something")
		sess := session.New("c1")
		o := newOrchestrator(t, m, sess, steps)
		require.NoError(o.Resume(context.Background()))

		require.Error(o.Retry(context.Background()))
		require.Equal("J1", sess.NodeJobID())
	})

	t.Run("Retrying a step without job should fail.", func(t *testing.T) {
		require := require.New(t)

		m := &clientmock.MockClient{}
		m.On("GetProcedure", mock.Anything, "c1").Once().Return(nil, model.ErrNotFound)
		o := newOrchestrator(t, m, session.New("c1"), newTestSteps())
		require.NoError(o.Resume(context.Background()))

		require.ErrorIs(o.Retry(context.Background()), model.ErrNotValid)
	})
}

func TestOrchestratorStepList(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m := &clientmock.MockClient{}
	m.On("GetProcedure", mock.Anything, "c1").Once().Return(&model.Procedure{ClusterID: "c1", NodeJobID: "J1", State: model.ProcedureStateCheck}, nil)
	steps := newTestSteps()
	steps[3].(*testJobStep).status = wizard.JobStatus{State: model.JobExecStateError, Terminal: true}
	o := newOrchestrator(t, m, session.New("c1"), steps)
	require.NoError(o.Resume(context.Background()))

	views := o.StepList()
	require.Len(views, 13)
	assert.Equal(wizard.StepStatusFinish, views[0].Status)
	assert.Equal(wizard.StepStatusFinish, views[2].Status)
	assert.Equal(wizard.StepStatusError, views[3].Status)
	assert.Equal(wizard.StepStatusWait, views[4].Status)
	assert.Equal(wizard.StepStatusWait, views[12].Status)
}

func TestOrchestratorSnapshot(t *testing.T) {
	tests := map[string]struct {
		procedure   *model.Procedure
		expStep     string
		expCursor   int
		expJob      bool
		expJobState model.JobExecState
	}{
		"A local step should not have job status.": {
			procedure: &model.Procedure{ClusterID: "c1", State: model.ProcedureStateParseHostname, Nodes: []model.Node{{ID: "n1"}}},
			expStep:   "choose",
			expCursor: 1,
		},
		"A job step should have job status.": {
			procedure:   &model.Procedure{ClusterID: "c1", NodeJobID: "J1", State: model.ProcedureStateDispatch},
			expStep:     "dispatch",
			expCursor:   4,
			expJob:      true,
			expJobState: model.JobExecStateRunning,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &clientmock.MockClient{}
			m.On("GetProcedure", mock.Anything, "c1").Once().Return(test.procedure, nil)
			steps := newTestSteps()
			for _, s := range steps {
				if js, ok := s.(*testJobStep); ok {
					js.status = wizard.JobStatus{State: model.JobExecStateRunning}
				}
			}
			o := newOrchestrator(t, m, session.New("c1"), steps)
			require.NoError(o.Resume(context.Background()))

			snap := o.Snapshot()
			assert.Equal(test.expStep, snap.StepName)
			assert.Equal(test.expCursor, snap.Session.Cursor)
			assert.Equal(test.procedure.NodeJobID, snap.Session.NodeJobID)
			assert.Len(snap.Steps, 13)
			if test.expJob {
				require.NotNil(snap.Job)
				assert.Equal(test.expJobState, snap.Job.State)
			} else {
				assert.Nil(snap.Job)
			}
		})
	}
}

func TestOrchestratorClose(t *testing.T) {
	require := require.New(t)

	m := &clientmock.MockClient{}
	m.On("GetProcedure", mock.Anything, "c1").Once().Return(&model.Procedure{ClusterID: "c1", NodeJobID: "J1", State: model.ProcedureStateDetect}, nil)
	steps := newTestSteps()
	o := newOrchestrator(t, m, session.New("c1"), steps)
	require.NoError(o.Resume(context.Background()))

	o.Close()
	o.Close()
	require.Equal(1, stepAt(steps, 2).unmounts)
}
