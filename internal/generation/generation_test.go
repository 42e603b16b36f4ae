package generation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpmusenge/local-biz-agent/internal/model"
	"github.com/jpmusenge/local-biz-agent/internal/store"
	"github.com/jpmusenge/local-biz-agent/pkg/webgen"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedBusiness(t *testing.T, st store.Store, name string) *model.Business {
	t.Helper()
	b, err := st.InsertBusiness(context.Background(), &model.Business{
		Name:     name,
		Category: "plumber",
		City:     "Springfield",
		State:    "IL",
		Phone:    "(217) 555-0100",
		Source:   "google_places",
		SourceID: "seed-" + name,
	})
	require.NoError(t, err)
	return b
}

func TestRunGeneratesAndAdvancesStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	b := seedBusiness(t, st, "Ace Plumbing")

	r := NewRunner(st, webgen.NewMock())
	summary, err := r.Run(ctx, Config{Limit: 10, TemplatesPerBusiness: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.WebsitesCreated)

	got, err := st.GetBusiness(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWebsiteGenerated, got.Status)

	pending, err := st.WebsitesPendingDeployment(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "modern", pending[0].TemplateName)
	assert.Equal(t, 1, pending[0].VariationNumber)
	assert.Equal(t, "classic", pending[1].TemplateName)
	assert.Equal(t, 2, pending[1].VariationNumber)
	for _, w := range pending {
		assert.Contains(t, w.HTMLContent, "Ace Plumbing")
	}
}

func TestRunSkipsBusinessesWithWebsites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	url := "https://existing.example.com"
	has := true
	b := seedBusiness(t, st, "Has Website Inc")
	_, err := st.UpdateBusiness(ctx, b.ID, store.BusinessUpdate{WebsiteURL: &url, HasWebsite: &has})
	require.NoError(t, err)

	r := NewRunner(st, webgen.NewMock())
	summary, err := r.Run(ctx, Config{Limit: 10, TemplatesPerBusiness: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
}

type flakyGenerator struct {
	failTemplate string
	failAll      bool
	calls        int
}

func (g *flakyGenerator) InMockMode() bool { return true }

func (g *flakyGenerator) GenerateWebsite(ctx context.Context, biz webgen.BusinessInfo, tmpl webgen.Template) (string, error) {
	g.calls++
	if g.failAll || tmpl.Name == g.failTemplate {
		return "", assert.AnError
	}
	return webgen.NewMock().GenerateWebsite(ctx, biz, tmpl)
}

func TestRunVariationFailureDoesNotAbortBusiness(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	b := seedBusiness(t, st, "Partial Success Co")

	gen := &flakyGenerator{failTemplate: "modern"}
	r := NewRunner(st, gen)
	summary, err := r.Run(ctx, Config{Limit: 10, TemplatesPerBusiness: 3})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.WebsitesCreated)
	assert.Equal(t, 3, gen.calls)

	got, err := st.GetBusiness(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWebsiteGenerated, got.Status)
}

func TestRunTotalFailureLeavesBusinessEligible(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	b := seedBusiness(t, st, "Unlucky LLC")

	r := NewRunner(st, &flakyGenerator{failAll: true})
	summary, err := r.Run(ctx, Config{Limit: 10, TemplatesPerBusiness: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.WebsitesCreated)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, b.ID, summary.Failures[0].BusinessID)

	// Status never advanced, so the business stays in the queue.
	got, err := st.GetBusiness(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDiscovered, got.Status)

	queue, err := st.BusinessesNeedingWebsites(ctx, 10)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, b.ID, queue[0].ID)
}

func TestRunFailedBusinessDoesNotAbortBatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedBusiness(t, st, "First Co")
	seedBusiness(t, st, "Second Co")

	// Fail the modern template, which is the only one requested, so every
	// business fails; the batch still visits both.
	r := NewRunner(st, &flakyGenerator{failTemplate: "modern"})
	summary, err := r.Run(ctx, Config{Limit: 10, TemplatesPerBusiness: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, summary.Failures, 2)
}
