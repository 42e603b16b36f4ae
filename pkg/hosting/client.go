// Package hosting deploys generated websites as single-file static sites
// on a hosting platform. The live client talks to the Vercel API; the mock
// client fabricates URLs offline and is selected whenever no API token is
// configured.
package hosting

import "context"

// DeployState enumerates deployment lifecycle states as reported by the
// platform.
type DeployState string

const (
	StateQueued   DeployState = "QUEUED"
	StateBuilding DeployState = "BUILDING"
	StateReady    DeployState = "READY"
	StateError    DeployState = "ERROR"
	StateCanceled DeployState = "CANCELED"
)

// Terminal reports whether the state ends the deployment lifecycle.
func (s DeployState) Terminal() bool {
	switch s {
	case StateReady, StateError, StateCanceled:
		return true
	}
	return false
}

// Project is a hosting project holding one site's deployments.
type Project struct {
	ID   string
	Name string
}

// Deployment is one upload of site content to a project.
type Deployment struct {
	ID    string
	URL   string
	State DeployState
}

// Client performs hosting platform operations.
type Client interface {
	// CreateProject creates or fetches the project for a business name and
	// template variation. A name conflict returns the existing project.
	CreateProject(ctx context.Context, name string, variation int) (*Project, error)

	// DeployWebsite uploads html as a single-file static site and waits for
	// a terminal deployment state. A poll timeout resolves to StateError on
	// the returned deployment rather than an error.
	DeployWebsite(ctx context.Context, projectID, html, label string) (*Deployment, error)

	// GetDeploymentStatus fetches the current state of one deployment.
	GetDeploymentStatus(ctx context.Context, deploymentID string) (*Deployment, error)

	// DeleteProject removes a project and its deployments.
	DeleteProject(ctx context.Context, projectID string) error

	// InMockMode reports whether the client is the offline substitute.
	InMockMode() bool
}
