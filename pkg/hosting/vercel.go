package hosting

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jpmusenge/local-biz-agent/internal/resilience"
)

const (
	defaultVercelBaseURL = "https://api.vercel.com"
	defaultPollInterval  = 3 * time.Second
	defaultPollTimeout   = 2 * time.Minute
)

// Option configures the live client.
type Option func(*vercelClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *vercelClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *vercelClient) {
		c.http = hc
	}
}

// WithRateLimit sets the outgoing requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *vercelClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithPollInterval overrides the status poll spacing.
func WithPollInterval(d time.Duration) Option {
	return func(c *vercelClient) {
		c.pollInterval = d
	}
}

// WithPollTimeout overrides the bound on waiting for a terminal state.
func WithPollTimeout(d time.Duration) Option {
	return func(c *vercelClient) {
		c.pollTimeout = d
	}
}

// WithRetryConfig overrides upload retry behavior.
func WithRetryConfig(rc resilience.RetryConfig) Option {
	return func(c *vercelClient) {
		c.retry = rc
	}
}

// WithTeamID scopes all API calls to a team. Required when the token is a
// team token rather than a personal one.
func WithTeamID(id string) Option {
	return func(c *vercelClient) {
		c.teamID = id
	}
}

type vercelClient struct {
	token        string
	teamID       string
	baseURL      string
	http         *http.Client
	limiter      *rate.Limiter
	pollInterval time.Duration
	pollTimeout  time.Duration
	retry        resilience.RetryConfig
}

// NewClient creates a live hosting client. Callers that have no API token
// should construct a mock client instead; see NewMock.
func NewClient(token string, opts ...Option) Client {
	c := &vercelClient{
		token:        token,
		baseURL:      defaultVercelBaseURL,
		http:         &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(5, 1),
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
		retry:        resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *vercelClient) InMockMode() bool { return false }

type projectResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type deploymentResponse struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	ReadyState string `json:"readyState"`
}

func (c *vercelClient) CreateProject(ctx context.Context, name string, variation int) (*Project, error) {
	projectName := ProjectNameFor(name, variation)

	body := map[string]string{"name": projectName}
	var created projectResponse
	err := c.doJSON(ctx, http.MethodPost, "/v9/projects", body, &created)
	if err == nil {
		return &Project{ID: created.ID, Name: created.Name}, nil
	}

	// A name conflict means the project already exists; fetch and reuse it.
	if isConflict(err) {
		var existing projectResponse
		if getErr := c.doJSON(ctx, http.MethodGet, "/v9/projects/"+projectName, nil, &existing); getErr != nil {
			return nil, eris.Wrapf(getErr, "hosting: fetch existing project %s", projectName)
		}
		zap.L().Debug("reusing existing project", zap.String("project", projectName))
		return &Project{ID: existing.ID, Name: existing.Name}, nil
	}

	return nil, eris.Wrapf(err, "hosting: create project %s", projectName)
}

func (c *vercelClient) DeployWebsite(ctx context.Context, projectID, html, label string) (*Deployment, error) {
	body := map[string]any{
		"name":    label,
		"project": projectID,
		"target":  "production",
		"files": []map[string]string{
			{
				"file":     "index.html",
				"data":     base64.StdEncoding.EncodeToString([]byte(html)),
				"encoding": "base64",
			},
		},
	}

	// The upload is the one call worth retrying; a transient failure here
	// wastes an already-paid-for generation.
	retryCfg := c.retry
	retryCfg.OnRetry = resilience.RetryLogger("hosting", "upload")

	var initial deploymentResponse
	err := resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, "/v13/deployments", body, &initial)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "hosting: deploy to project %s", projectID)
	}

	dep := &Deployment{
		ID:    initial.ID,
		URL:   normalizeURL(initial.URL),
		State: DeployState(initial.ReadyState),
	}
	return c.waitForTerminal(ctx, dep)
}

// waitForTerminal polls at a fixed interval until the deployment reaches a
// terminal state or the poll timeout elapses. Timeout resolves the
// deployment to StateError rather than returning an error.
func (c *vercelClient) waitForTerminal(ctx context.Context, dep *Deployment) (*Deployment, error) {
	deadline := time.Now().Add(c.pollTimeout)

	for !dep.State.Terminal() {
		if time.Now().After(deadline) {
			zap.L().Warn("deployment poll timed out",
				zap.String("deployment_id", dep.ID),
				zap.Duration("timeout", c.pollTimeout),
			)
			dep.State = StateError
			return dep, nil
		}

		select {
		case <-ctx.Done():
			return dep, eris.Wrap(ctx.Err(), "hosting: status poll wait")
		case <-time.After(c.pollInterval):
		}

		current, err := c.GetDeploymentStatus(ctx, dep.ID)
		if err != nil {
			return dep, eris.Wrapf(err, "hosting: poll deployment %s", dep.ID)
		}
		dep = current
	}

	return dep, nil
}

func (c *vercelClient) GetDeploymentStatus(ctx context.Context, deploymentID string) (*Deployment, error) {
	var resp deploymentResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v13/deployments/"+deploymentID, nil, &resp); err != nil {
		return nil, eris.Wrapf(err, "hosting: get deployment %s", deploymentID)
	}
	return &Deployment{
		ID:    resp.ID,
		URL:   normalizeURL(resp.URL),
		State: DeployState(resp.ReadyState),
	}, nil
}

func (c *vercelClient) DeleteProject(ctx context.Context, projectID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/v9/projects/"+projectID, nil, nil); err != nil {
		return eris.Wrapf(err, "hosting: delete project %s", projectID)
	}
	return nil
}

func (c *vercelClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit wait")
	}

	var reqBody io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		reqBody = bytes.NewReader(encoded)
	}

	url := c.baseURL + path
	if c.teamID != "" {
		url += "?teamId=" + neturl.QueryEscape(c.teamID)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return resilience.NewTransientError(eris.Wrap(err, "send request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode >= 400 {
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(
				eris.Errorf("status %d: %s", resp.StatusCode, truncate(body)),
				resp.StatusCode)
		}
		return resilience.NewPermanentError(method+" "+path, resp.StatusCode,
			eris.Errorf("status %d: %s", resp.StatusCode, truncate(body)))
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	return eris.Wrap(json.Unmarshal(body, out), "unmarshal response")
}

// isConflict reports whether an error is the platform's duplicate-name
// response.
func isConflict(err error) bool {
	var perm *resilience.PermanentError
	if eris.As(err, &perm) {
		return perm.StatusCode == http.StatusConflict
	}
	return false
}

// normalizeURL prefixes the platform's bare hostnames with a scheme.
func normalizeURL(u string) string {
	if u == "" {
		return ""
	}
	if len(u) >= 4 && u[:4] == "http" {
		return u
	}
	return "https://" + u
}

func truncate(b []byte) string {
	s := string(bytes.TrimSpace(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
