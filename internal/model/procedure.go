package model

import (
	"fmt"
	"strings"
)

// ProcedureState is the backend tracked stage of a cluster node onboarding procedure.
type ProcedureState string

const (
	ProcedureStateBeforeParse     ProcedureState = "PROCEDURE_BEFORE_PARSE"
	ProcedureStateParseHostname   ProcedureState = "PROCEDURE_PARSE_HOSTNAME"
	ProcedureStateDetect          ProcedureState = "PROCEDURE_DETECT"
	ProcedureStateCheck           ProcedureState = "PROCEDURE_CHECK"
	ProcedureStateDispatch        ProcedureState = "PROCEDURE_DISPATCH"
	ProcedureStateStartWorker     ProcedureState = "PROCEDURE_START_WORKER"
	ProcedureStateAddNodeDone     ProcedureState = "PROCEDURE_ADD_NODE_DONE"
	ProcedureStateSelectService   ProcedureState = "PROCEDURE_SELECT_SERVICE"
	ProcedureStateSelectComponent ProcedureState = "PROCEDURE_SELECT_COMPONENT"
	ProcedureStatePreConfig       ProcedureState = "PROCEDURE_PRE_CONFIG"
	ProcedureStateDeploying       ProcedureState = "PROCEDURE_DEPLOYING"
)

// Node is a cluster node known by the onboarding procedure.
type Node struct {
	ID       string
	Hostname string
	IP       string
	SSHPort  int
	State    ExecState
}

// Procedure is the snapshot of the onboarding procedure of a cluster as reported by the backend.
type Procedure struct {
	ClusterID string
	NodeJobID string
	JobID     string
	State     ProcedureState
	Nodes     []Node
}

// ParseRequest is the user input of the hostname parse step.
type ParseRequest struct {
	ClusterID string
	// Hostnames are hostname patterns, one per entry (e.g. `node[01-10].example.com`).
	Hostnames []string
	SSHPort   int
}

// Validate validates the parse request.
func (p ParseRequest) Validate() error {
	if p.ClusterID == "" {
		return fmt.Errorf("cluster id is required: %w", ErrStepValidation)
	}

	if len(p.Hostnames) == 0 {
		return fmt.Errorf("at least one hostname is required: %w", ErrStepValidation)
	}

	for _, h := range p.Hostnames {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("hostname can't be empty: %w", ErrStepValidation)
		}
	}

	if p.SSHPort <= 0 || p.SSHPort > 65535 {
		return fmt.Errorf("ssh port must be between 1 and 65535, got %d: %w", p.SSHPort, ErrStepValidation)
	}

	return nil
}
