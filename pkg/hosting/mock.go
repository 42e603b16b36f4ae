package hosting

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const mockDomain = "mock-sites.local"

// MockClient fabricates hosting results offline. Projects are held in
// memory; deployments are READY instantly with no polling.
type MockClient struct {
	mu          sync.Mutex
	projects    map[string]*Project // keyed by project name
	deployments map[string]*Deployment
	deployed    map[string]string // project ID -> last deployment ID
	seq         int
}

// NewMock creates a mock hosting client.
func NewMock() *MockClient {
	return &MockClient{
		projects:    make(map[string]*Project),
		deployments: make(map[string]*Deployment),
		deployed:    make(map[string]string),
	}
}

func (m *MockClient) InMockMode() bool { return true }

func (m *MockClient) CreateProject(ctx context.Context, name string, variation int) (*Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	projectName := ProjectNameFor(name, variation)
	if p, ok := m.projects[projectName]; ok {
		return p, nil
	}

	m.seq++
	p := &Project{
		ID:   fmt.Sprintf("mock-prj-%d", m.seq),
		Name: projectName,
	}
	m.projects[projectName] = p

	zap.L().Debug("mock project created", zap.String("project", projectName))
	return p, nil
}

func (m *MockClient) DeployWebsite(ctx context.Context, projectID, html, label string) (*Deployment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if html == "" {
		return nil, eris.New("hosting: empty content")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name := m.projectNameByID(projectID)
	if name == "" {
		return nil, eris.Errorf("hosting: project not found: %s", projectID)
	}

	m.seq++
	d := &Deployment{
		ID:    fmt.Sprintf("mock-dpl-%d", m.seq),
		URL:   fmt.Sprintf("https://%s.%s", name, mockDomain),
		State: StateReady,
	}
	m.deployments[d.ID] = d
	m.deployed[projectID] = d.ID
	return d, nil
}

func (m *MockClient) GetDeploymentStatus(ctx context.Context, deploymentID string) (*Deployment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.deployments[deploymentID]
	if !ok {
		return nil, eris.Errorf("hosting: deployment not found: %s", deploymentID)
	}
	return d, nil
}

func (m *MockClient) DeleteProject(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name := m.projectNameByID(projectID)
	if name == "" {
		return eris.Errorf("hosting: project not found: %s", projectID)
	}
	delete(m.projects, name)
	delete(m.deployed, projectID)
	return nil
}

// projectNameByID looks a project up by ID; callers hold the lock.
func (m *MockClient) projectNameByID(id string) string {
	for name, p := range m.projects {
		if p.ID == id {
			return name
		}
	}
	return ""
}
