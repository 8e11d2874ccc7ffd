package http

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/model"
)

type envelope struct {
	Code    string          `json:"Code"`
	Message string          `json:"Message"`
	Data    json.RawMessage `json:"Data"`
}

type nodeVo struct {
	NodeID    string `json:"NodeId"`
	Hostname  string `json:"Hostname"`
	NodeIP    string `json:"NodeIp"`
	SSHPort   int    `json:"SshPort"`
	NodeState string `json:"NodeState"`
}

type procedureVo struct {
	ClusterID      string   `json:"ClusterId"`
	NodeJobID      string   `json:"NodeJobId"`
	JobID          string   `json:"JobId"`
	ProcedureState string   `json:"ProcedureState"`
	NodeInfoList   []nodeVo `json:"NodeInfoList"`
}

func (p procedureVo) toModel() model.Procedure {
	return model.Procedure{
		ClusterID: p.ClusterID,
		NodeJobID: p.NodeJobID,
		JobID:     p.JobID,
		State:     model.ProcedureState(p.ProcedureState),
		Nodes:     nodesToModel(p.NodeInfoList),
	}
}

type parseHostnamesRequestVo struct {
	ClusterID    string   `json:"ClusterId"`
	HostnameList []string `json:"HostnameList"`
	SSHPort      int      `json:"SshPort"`
}

type nodeListVo struct {
	NodeInfoList []nodeVo `json:"NodeInfoList"`
}

type nodeJobRequestVo struct {
	ClusterID    string   `json:"ClusterId"`
	SSHPort      int      `json:"SshPort"`
	NodeInfoList []nodeVo `json:"NodeInfoList"`
}

func nodeJobRequestFromModel(req client.NodeJobRequest) nodeJobRequestVo {
	nodes := make([]nodeVo, 0, len(req.Nodes))
	for _, n := range req.Nodes {
		nodes = append(nodes, nodeVo{
			NodeID:    n.ID,
			Hostname:  n.Hostname,
			NodeIP:    n.IP,
			SSHPort:   n.SSHPort,
			NodeState: string(n.State),
		})
	}

	return nodeJobRequestVo{
		ClusterID:    req.ClusterID,
		SSHPort:      req.SSHPort,
		NodeInfoList: nodes,
	}
}

type nodeJobIDVo struct {
	NodeJobID string `json:"NodeJobId"`
}

type execStepVo struct {
	StepIndex     int    `json:"StepIndex"`
	StepName      string `json:"StepName"`
	StepExecState string `json:"StepExecState"`
}

type execProgressPerNodeVo struct {
	NodeID               string       `json:"NodeId"`
	Hostname             string       `json:"Hostname"`
	ExecProgress         string       `json:"ExecProgress"`
	ExecProgressStepList []execStepVo `json:"ExecProgressStepList"`
	JobExecStateEnum     string       `json:"JobExecStateEnum"`
}

type execProgressVo struct {
	ExecProgressPerNodeList []execProgressPerNodeVo `json:"ExecProgressPerNodeList"`
	JobExecStateEnum        string                  `json:"JobExecStateEnum"`
}

func (e execProgressVo) toModel(jobID string, kind model.JobKind) model.JobProgress {
	p := model.JobProgress{
		JobID: jobID,
		Kind:  kind,
		State: model.JobExecState(e.JobExecStateEnum),
	}

	for _, n := range e.ExecProgressPerNodeList {
		np := model.NodeExecProgress{
			NodeID:   n.NodeID,
			Hostname: n.Hostname,
			Percent:  parsePercent(n.ExecProgress),
			State:    model.JobExecState(n.JobExecStateEnum),
		}
		for _, s := range n.ExecProgressStepList {
			np.Steps = append(np.Steps, model.ExecStep{
				Index: s.StepIndex,
				Name:  s.StepName,
				State: model.JobExecState(s.StepExecState),
			})
		}
		p.Nodes = append(p.Nodes, np)
	}

	return p
}

type jobProgressResponseVo struct {
	JobExecProgress execProgressVo `json:"JobExecProgress"`
}

type nodeJobProgressResponseVo struct {
	NodeJobExecProgress execProgressVo `json:"NodeJobExecProgress"`
}

type logVo struct {
	LogContent string `json:"LogContent"`
	NextOffset int64  `json:"NextOffset"`
	Finished   bool   `json:"Finished"`
}

func nodesToModel(nodes []nodeVo) []model.Node {
	if len(nodes) == 0 {
		return nil
	}

	res := make([]model.Node, 0, len(nodes))
	for _, n := range nodes {
		res = append(res, model.Node{
			ID:       n.NodeID,
			Hostname: n.Hostname,
			IP:       n.NodeIP,
			SSHPort:  n.SSHPort,
			State:    model.ExecState(n.NodeState),
		})
	}

	return res
}

// parsePercent parses the progress percentage, unparseable values are 0.
func parsePercent(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0
	}

	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}

	return v
}
