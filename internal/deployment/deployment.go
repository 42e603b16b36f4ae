// Package deployment publishes generated websites. It drains the
// pending-deployment queue oldest first, provisioning a hosting project
// per business and variation and recording the live URL.
package deployment

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jpmusenge/local-biz-agent/internal/model"
	"github.com/jpmusenge/local-biz-agent/internal/store"
	"github.com/jpmusenge/local-biz-agent/pkg/hosting"
)

// Config controls one deployment run.
type Config struct {
	// Limit caps how many pending websites are pulled from the queue.
	Limit int
}

// WebsiteFailure records one website that could not be deployed.
type WebsiteFailure struct {
	WebsiteID  string `json:"website_id"`
	BusinessID string `json:"business_id"`
	Reason     string `json:"reason"`
}

// Summary is the auditable result of a deployment run.
type Summary struct {
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Failures  []WebsiteFailure `json:"failures,omitempty"`
}

// Runner drives deployment against a store and a hosting client.
type Runner struct {
	store   store.Store
	hosting hosting.Client
}

// NewRunner creates a deployment runner.
func NewRunner(st store.Store, hc hosting.Client) *Runner {
	return &Runner{store: st, hosting: hc}
}

// Run deploys pending websites in creation order. One website's failure
// is recorded and does not abort the batch.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Summary, error) {
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}

	pending, err := r.store.WebsitesPendingDeployment(ctx, cfg.Limit)
	if err != nil {
		return nil, eris.Wrap(err, "deployment: load queue")
	}

	if r.hosting.InMockMode() {
		zap.L().Info("hosting client in mock mode; URLs are synthetic")
	}

	summary := &Summary{Total: len(pending)}
	for _, site := range pending {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "deployment: run canceled")
		}

		if err := r.deployOne(ctx, &site); err != nil {
			zap.L().Error("deployment failed",
				zap.String("website_id", site.ID),
				zap.String("business_id", site.BusinessID),
				zap.Error(err),
			)
			summary.Failed++
			summary.Failures = append(summary.Failures, WebsiteFailure{
				WebsiteID:  site.ID,
				BusinessID: site.BusinessID,
				Reason:     err.Error(),
			})
			continue
		}
		summary.Succeeded++
	}

	return summary, nil
}

// DeployByID deploys one website with the same semantics as a batch run
// but no batch bookkeeping. Re-deploying an already deployed website is
// permitted and overwrites the stored URL and timestamp.
func (r *Runner) DeployByID(ctx context.Context, websiteID string) (*model.GeneratedWebsite, error) {
	site, err := r.store.GetWebsite(ctx, websiteID)
	if err != nil {
		return nil, eris.Wrapf(err, "deployment: load website %s", websiteID)
	}
	if err := r.deployOne(ctx, site); err != nil {
		return nil, err
	}
	return r.store.GetWebsite(ctx, websiteID)
}

func (r *Runner) deployOne(ctx context.Context, site *model.GeneratedWebsite) error {
	biz, err := r.store.GetBusiness(ctx, site.BusinessID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return eris.Errorf("business not found: %s", site.BusinessID)
		}
		return eris.Wrapf(err, "load business %s", site.BusinessID)
	}

	project, err := r.hosting.CreateProject(ctx, biz.Name, site.VariationNumber)
	if err != nil {
		return eris.Wrapf(err, "create project for %q variation %d", biz.Name, site.VariationNumber)
	}

	dep, err := r.hosting.DeployWebsite(ctx, project.ID, site.HTMLContent, project.Name)
	if err != nil {
		return eris.Wrapf(err, "deploy to project %s", project.Name)
	}
	if dep.State != hosting.StateReady {
		return eris.Errorf("deployment ended in state %s", dep.State)
	}

	if err := r.store.MarkWebsiteDeployed(ctx, site.ID, dep.URL); err != nil {
		return eris.Wrap(err, "record deployment")
	}

	zap.L().Info("website deployed",
		zap.String("business", biz.Name),
		zap.String("website_id", site.ID),
		zap.String("url", dep.URL),
	)
	return nil
}
