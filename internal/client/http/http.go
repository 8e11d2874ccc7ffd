package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slok/nodeinit/internal/client"
	"github.com/slok/nodeinit/internal/log"
	"github.com/slok/nodeinit/internal/model"
)

const (
	apiPrefix = "/api/v1/master"

	pathProcedure       = apiPrefix + "/node/init/procedure"
	pathParseHostnames  = apiPrefix + "/node/init/parse"
	pathDetect          = apiPrefix + "/node/init/detect"
	pathCheck           = apiPrefix + "/node/init/check"
	pathDispatch        = apiPrefix + "/node/init/dispatch"
	pathStartWorker     = apiPrefix + "/node/init/startWorker"
	pathAddNodes        = apiPrefix + "/node/init/add"
	pathJobProgress     = apiPrefix + "/job/progress"
	pathNodeJobProgress = apiPrefix + "/node/job/progress"
	pathJobLog          = apiPrefix + "/job/log"
	pathNodeJobLog      = apiPrefix + "/node/job/log"

	headerRequestID = "X-Request-Id"
)

// ClientConfig is the configuration of the master API HTTP client.
type ClientConfig struct {
	BaseURL string
	// Timeout is the timeout of every request, zero means no timeout.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url scheme must be http or https")
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.Timeout < 0 {
		return fmt.Errorf("timeout can't be negative")
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "client.HTTP"})

	return nil
}

// Client is the master API client over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// NewClient returns a new master API HTTP client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

var _ client.Client = &Client{}

func (c *Client) GetProcedure(ctx context.Context, clusterID string) (*model.Procedure, error) {
	var resp procedureVo
	err := c.do(ctx, http.MethodGet, pathProcedure, url.Values{"ClusterId": {clusterID}}, nil, &resp)
	if err != nil {
		return nil, err
	}

	p := resp.toModel()
	if p.ClusterID == "" {
		p.ClusterID = clusterID
	}

	return &p, nil
}

func (c *Client) GetJobProgress(ctx context.Context, jobID string) (*model.JobProgress, error) {
	var resp jobProgressResponseVo
	err := c.do(ctx, http.MethodGet, pathJobProgress, url.Values{"JobId": {jobID}}, nil, &resp)
	if err != nil {
		return nil, err
	}

	p := resp.JobExecProgress.toModel(jobID, model.JobKindCluster)
	return &p, nil
}

func (c *Client) GetNodeJobProgress(ctx context.Context, nodeJobID string) (*model.JobProgress, error) {
	var resp nodeJobProgressResponseVo
	err := c.do(ctx, http.MethodGet, pathNodeJobProgress, url.Values{"NodeJobId": {nodeJobID}}, nil, &resp)
	if err != nil {
		return nil, err
	}

	p := resp.NodeJobExecProgress.toModel(nodeJobID, model.JobKindNode)
	return &p, nil
}

func (c *Client) ParseHostnames(ctx context.Context, req client.ParseHostnamesRequest) ([]model.Node, error) {
	body := parseHostnamesRequestVo{
		ClusterID:    req.ClusterID,
		HostnameList: req.Hostnames,
		SSHPort:      req.SSHPort,
	}

	var resp nodeListVo
	if err := c.do(ctx, http.MethodPost, pathParseHostnames, nil, body, &resp); err != nil {
		return nil, err
	}

	return nodesToModel(resp.NodeInfoList), nil
}

func (c *Client) Detect(ctx context.Context, req client.NodeJobRequest) (string, error) {
	return c.nodeJob(ctx, pathDetect, req)
}

func (c *Client) Check(ctx context.Context, req client.NodeJobRequest) (string, error) {
	return c.nodeJob(ctx, pathCheck, req)
}

func (c *Client) Dispatch(ctx context.Context, req client.NodeJobRequest) (string, error) {
	return c.nodeJob(ctx, pathDispatch, req)
}

func (c *Client) StartWorker(ctx context.Context, req client.NodeJobRequest) (string, error) {
	return c.nodeJob(ctx, pathStartWorker, req)
}

func (c *Client) AddNodes(ctx context.Context, req client.NodeJobRequest) error {
	return c.do(ctx, http.MethodPost, pathAddNodes, nil, nodeJobRequestFromModel(req), nil)
}

func (c *Client) GetLog(ctx context.Context, req client.LogRequest) (*model.LogChunk, error) {
	q := url.Values{
		"ClusterId": {req.ClusterID},
		"NodeId":    {req.NodeID},
		"Offset":    {strconv.FormatInt(req.Offset, 10)},
	}

	path := pathNodeJobLog
	if req.Kind == model.JobKindCluster {
		path = pathJobLog
		q.Set("JobId", req.JobID)
	} else {
		q.Set("NodeJobId", req.JobID)
	}

	var resp logVo
	if err := c.do(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
		return nil, err
	}

	return &model.LogChunk{
		NodeID:  req.NodeID,
		Content: resp.LogContent,
		Offset:  resp.NextOffset,
		Done:    resp.Finished,
	}, nil
}

func (c *Client) nodeJob(ctx context.Context, path string, req client.NodeJobRequest) (string, error) {
	var resp nodeJobIDVo
	if err := c.do(ctx, http.MethodPost, path, nil, nodeJobRequestFromModel(req), &resp); err != nil {
		return "", err
	}

	if resp.NodeJobID == "" {
		return "", fmt.Errorf("missing node job id on %s response", path)
	}

	return resp.NodeJobID, nil
}

// do makes the API call and decodes the envelope data into out when not nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	reqID := uuid.NewString()
	httpReq.Header.Set(headerRequestID, reqID)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	logger := c.logger.WithValues(log.Kv{"request-id": reqID, "path": path})
	logger.Debugf("%s %s", method, u)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("could not execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code on %s: %d", path, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}

	switch env.Code {
	case client.CodeOK:
	case client.CodeNotFound:
		return fmt.Errorf("%w: %w", model.ErrNotFound, &client.APIError{Code: env.Code, Message: env.Message})
	default:
		logger.Debugf("API error %s: %s", env.Code, env.Message)
		return &client.APIError{Code: env.Code, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("could not decode response data: %w", err)
	}

	return nil
}
