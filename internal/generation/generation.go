// Package generation produces websites for businesses that lack one. It
// drains the needing-websites queue, calling the AI generator once per
// requested template variation and persisting each result.
package generation

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jpmusenge/local-biz-agent/internal/model"
	"github.com/jpmusenge/local-biz-agent/internal/store"
	"github.com/jpmusenge/local-biz-agent/pkg/webgen"
)

// Config controls one generation run.
type Config struct {
	// Limit caps how many businesses are pulled from the queue.
	Limit int

	// TemplatesPerBusiness is the number of variations to produce, 1 to 3.
	TemplatesPerBusiness int

	// MinHTMLLength overrides the quality gate's minimum document size
	// when positive.
	MinHTMLLength int
}

// BusinessFailure records a business for which no variation succeeded.
// The business keeps its current status and stays in the queue for the
// next run.
type BusinessFailure struct {
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

// Summary is the auditable result of a generation run.
type Summary struct {
	Processed       int               `json:"processed"`
	Succeeded       int               `json:"succeeded"`
	Failed          int               `json:"failed"`
	WebsitesCreated int               `json:"websites_created"`
	Failures        []BusinessFailure `json:"failures,omitempty"`
}

// Runner drives generation against a store and a generator.
type Runner struct {
	store   store.Store
	gen     webgen.Generator
	checker *QualityChecker
}

// NewRunner creates a generation runner.
func NewRunner(st store.Store, gen webgen.Generator) *Runner {
	return &Runner{store: st, gen: gen, checker: NewQualityChecker()}
}

// Run generates websites for queued businesses. A failed variation is
// skipped without aborting the business's remaining variations; a failed
// business without aborting the batch. Persisting the first variation
// advances the business to website_generated as a store side effect.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Summary, error) {
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.MinHTMLLength > 0 {
		r.checker.MinLength = cfg.MinHTMLLength
	}
	templates := webgen.TemplatesFor(cfg.TemplatesPerBusiness)

	queue, err := r.store.BusinessesNeedingWebsites(ctx, cfg.Limit)
	if err != nil {
		return nil, eris.Wrap(err, "generation: load queue")
	}

	if r.gen.InMockMode() {
		zap.L().Info("generator in mock mode; websites are synthetic")
	}

	summary := &Summary{}
	for _, biz := range queue {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "generation: run canceled")
		}
		summary.Processed++

		created, lastErr := r.generateForBusiness(ctx, biz, templates)
		summary.WebsitesCreated += created
		if created > 0 {
			summary.Succeeded++
			continue
		}

		summary.Failed++
		reason := "no variation succeeded"
		if lastErr != nil {
			reason = lastErr.Error()
		}
		summary.Failures = append(summary.Failures, BusinessFailure{
			BusinessID: biz.ID,
			Name:       biz.Name,
			Reason:     reason,
		})
	}

	return summary, nil
}

// generateForBusiness produces up to len(templates) variations, returning
// how many were persisted and the last error seen.
func (r *Runner) generateForBusiness(ctx context.Context, biz model.Business, templates []webgen.Template) (int, error) {
	log := zap.L().With(
		zap.String("business_id", biz.ID),
		zap.String("business", biz.Name),
	)

	info := webgen.BusinessInfo{
		Name:     biz.Name,
		Category: biz.Category,
		Address:  biz.Address,
		City:     biz.City,
		State:    biz.State,
		Phone:    biz.Phone,
		Email:    biz.Email,
	}

	var created int
	var lastErr error
	for i, tmpl := range templates {
		html, err := r.gen.GenerateWebsite(ctx, info, tmpl)
		if err != nil {
			log.Warn("variation failed",
				zap.String("template", tmpl.Name),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		report := r.checker.Check(html)
		report.Log(biz.Name, tmpl.Name)

		_, err = r.store.InsertWebsite(ctx, &model.GeneratedWebsite{
			BusinessID:      biz.ID,
			TemplateName:    tmpl.Name,
			VariationNumber: i + 1,
			HTMLContent:     html,
		})
		if err != nil {
			log.Warn("variation persist failed",
				zap.String("template", tmpl.Name),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		created++
	}

	return created, lastErr
}
