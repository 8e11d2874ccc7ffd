package model

// ExecState is the execution state of a node or service as shown to the user.
type ExecState string

const (
	ExecStateStarted          ExecState = "STARTED"
	ExecStateResolved         ExecState = "RESOLVED"
	ExecStateActive           ExecState = "ACTIVE"
	ExecStateDetecting        ExecState = "DETECTING"
	ExecStateInactive         ExecState = "INACTIVE"
	ExecStateCheckOK          ExecState = "CHECK_OK"
	ExecStateChecking         ExecState = "CHECKING"
	ExecStateCheckError       ExecState = "CHECK_ERROR"
	ExecStatePushing          ExecState = "PUSHING"
	ExecStatePushOK           ExecState = "PUSH_OK"
	ExecStatePushError        ExecState = "PUSH_ERROR"
	ExecStateStartWorkerOK    ExecState = "START_WORKER_OK"
	ExecStateStartingWorker   ExecState = "STARTING_WORKER"
	ExecStateStartWorkerError ExecState = "START_WORKER_ERROR"
	ExecStateUnselected       ExecState = "UNSELECTED"
	ExecStateSelected         ExecState = "SELECTED"
	ExecStateDeployed         ExecState = "DEPLOYED"
	ExecStateUndeployed       ExecState = "UNDEPLOYED"
	ExecStateSelectedAddition ExecState = "SELECTED_ADDITION"
	ExecStateDeploying        ExecState = "DEPLOYING"
	ExecStateStarting         ExecState = "STARTING"
	ExecStateStopping         ExecState = "STOPPING"
	ExecStateStopped          ExecState = "STOPPED"
	ExecStateRestarting       ExecState = "RESTARTING"
	ExecStateDecommissioning  ExecState = "DECOMMISSIONING"
	ExecStateDecommissioned   ExecState = "DECOMMISSIONED"
	ExecStateChanging         ExecState = "CHANGING"
	ExecStateRemoved          ExecState = "REMOVED"
)

// JobExecState is the execution state of a single job or job step.
type JobExecState string

const (
	JobExecStateOK       JobExecState = "OK"
	JobExecStateError    JobExecState = "ERROR"
	JobExecStateRunning  JobExecState = "RUNNING"
	JobExecStateSuspend  JobExecState = "SUSPEND"
	JobExecStateNotExist JobExecState = "NOT_EXIST"
)

// Terminal returns true when no further progress is expected for the state.
func (s JobExecState) Terminal() bool {
	return s == JobExecStateOK || s == JobExecStateError
}

// UnionJobExecState returns the state of a job owned by multiple nodes.
// Any error makes the job an error, all OK makes it OK, anything else is in progress.
func UnionJobExecState(states ...JobExecState) JobExecState {
	if len(states) == 0 {
		return JobExecStateRunning
	}

	allOK := true
	for _, s := range states {
		if s == JobExecStateError {
			return JobExecStateError
		}
		if s != JobExecStateOK {
			allOK = false
		}
	}

	if allOK {
		return JobExecStateOK
	}

	return JobExecStateRunning
}

// JobKind is the kind of asynchronous job that is polled.
type JobKind string

const (
	// JobKindNode is a job tracked per node (onboarding jobs).
	JobKindNode JobKind = "node-job"
	// JobKindCluster is a job tracked per cluster (deployment jobs).
	JobKindCluster JobKind = "cluster-job"
)

// ExecStep is a discrete execution step of a node inside a job.
type ExecStep struct {
	Index int
	Name  string
	State JobExecState
}

// NodeExecProgress is the execution progress of a job on a single node.
type NodeExecProgress struct {
	NodeID   string
	Hostname string
	// Percent is the completion percentage (0-100).
	Percent float64
	Steps   []ExecStep
	State   JobExecState
}

// LastErrorStep returns the most recent step in error, if any.
func (n NodeExecProgress) LastErrorStep() (ExecStep, bool) {
	for i := len(n.Steps) - 1; i >= 0; i-- {
		if n.Steps[i].State == JobExecStateError {
			return n.Steps[i], true
		}
	}

	return ExecStep{}, false
}

// Failed returns true when the node progress must be rendered as a failure.
func (n NodeExecProgress) Failed() bool {
	_, ok := n.LastErrorStep()
	return ok
}

// JobProgress is the execution progress snapshot of a job.
type JobProgress struct {
	JobID string
	Kind  JobKind
	Nodes []NodeExecProgress
	State JobExecState
}

// NodeStates returns the per node execution states of the job.
func (j JobProgress) NodeStates() []JobExecState {
	states := make([]JobExecState, 0, len(j.Nodes))
	for _, n := range j.Nodes {
		states = append(states, n.State)
	}

	return states
}

// OverallState returns the union of the job reported state and its node states.
func (j JobProgress) OverallState() JobExecState {
	states := j.NodeStates()
	if j.State != "" {
		states = append(states, j.State)
	}

	return UnionJobExecState(states...)
}

// LogChunk is an incremental fragment of a node job log.
type LogChunk struct {
	NodeID  string
	Content string
	// Offset is the offset the next fetch should start from.
	Offset int64
	// Done is true when the log will not receive more content.
	Done bool
}
