package deployment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpmusenge/local-biz-agent/internal/model"
	"github.com/jpmusenge/local-biz-agent/internal/store"
	"github.com/jpmusenge/local-biz-agent/pkg/hosting"
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

func seedWebsite(t *testing.T, st store.Store, bizName string, variation int) (*model.Business, *model.GeneratedWebsite) {
	t.Helper()
	ctx := context.Background()

	biz, err := st.GetBusinessBySource(ctx, "google_places", "seed-"+bizName)
	if err != nil {
		biz, err = st.InsertBusiness(ctx, &model.Business{
			Name:     bizName,
			Category: "plumber",
			City:     "Springfield",
			State:    "IL",
			Source:   "google_places",
			SourceID: "seed-" + bizName,
		})
		require.NoError(t, err)
	}

	site, err := st.InsertWebsite(ctx, &model.GeneratedWebsite{
		BusinessID:      biz.ID,
		TemplateName:    "modern",
		VariationNumber: variation,
		HTMLContent:     "<!DOCTYPE html><html><body>site</body></html>",
	})
	require.NoError(t, err)
	return biz, site
}

func TestRunDeploysPendingWebsites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	biz, site := seedWebsite(t, st, "Ace Plumbing", 1)

	r := NewRunner(st, hosting.NewMock())
	summary, err := r.Run(ctx, Config{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)

	got, err := st.GetWebsite(ctx, site.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PreviewURL)
	require.NotNil(t, got.DeployedAt)
	assert.Equal(t, "https://ace-plumbing-v1.mock-sites.local", *got.PreviewURL)

	gotBiz, err := st.GetBusiness(ctx, biz.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeployed, gotBiz.Status)

	// Queue is drained.
	pending, err := st.WebsitesPendingDeployment(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRunVariationsGetSeparateProjects(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, s1 := seedWebsite(t, st, "Summit Roofing", 1)
	_, s2 := seedWebsite(t, st, "Summit Roofing", 2)

	r := NewRunner(st, hosting.NewMock())
	summary, err := r.Run(ctx, Config{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)

	first, err := st.GetWebsite(ctx, s1.ID)
	require.NoError(t, err)
	second, err := st.GetWebsite(ctx, s2.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://summit-roofing-v1.mock-sites.local", *first.PreviewURL)
	assert.Equal(t, "https://summit-roofing-v2.mock-sites.local", *second.PreviewURL)
}

// orphanStore hides one business, simulating a row deleted by operator
// action after its website was generated.
type orphanStore struct {
	store.Store
	orphanID string
}

func (o *orphanStore) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	if id == o.orphanID {
		return nil, store.ErrNotFound
	}
	return o.Store.GetBusiness(ctx, id)
}

func TestRunMissingBusinessRecordedAndContinues(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	orphanBiz, orphan := seedWebsite(t, st, "Doomed Co", 1)
	_, healthy := seedWebsite(t, st, "Healthy Co", 1)

	r := NewRunner(&orphanStore{Store: st, orphanID: orphanBiz.ID}, hosting.NewMock())
	summary, err := r.Run(ctx, Config{Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, orphan.ID, summary.Failures[0].WebsiteID)
	assert.Contains(t, summary.Failures[0].Reason, "business not found")

	got, err := st.GetWebsite(ctx, healthy.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.PreviewURL)
}

func TestDeployByID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	biz, site := seedWebsite(t, st, "Single Shot", 1)

	r := NewRunner(st, hosting.NewMock())
	deployed, err := r.DeployByID(ctx, site.ID)
	require.NoError(t, err)
	require.NotNil(t, deployed.PreviewURL)
	assert.Equal(t, "https://single-shot-v1.mock-sites.local", *deployed.PreviewURL)

	gotBiz, err := st.GetBusiness(ctx, biz.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeployed, gotBiz.Status)
}

func TestDeployByIDUnknownWebsite(t *testing.T) {
	st := newTestStore(t)
	r := NewRunner(st, hosting.NewMock())

	_, err := r.DeployByID(context.Background(), "no-such-website")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestRedeployOverwrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, site := seedWebsite(t, st, "Twice Deployed", 1)

	r := NewRunner(st, hosting.NewMock())
	first, err := r.DeployByID(ctx, site.ID)
	require.NoError(t, err)

	second, err := r.DeployByID(ctx, site.ID)
	require.NoError(t, err)

	assert.Equal(t, *first.PreviewURL, *second.PreviewURL)
	require.NotNil(t, second.DeployedAt)
	assert.False(t, second.DeployedAt.Before(*first.DeployedAt))
}

type brokenHosting struct {
	*hosting.MockClient
}

func (b *brokenHosting) DeployWebsite(ctx context.Context, projectID, html, label string) (*hosting.Deployment, error) {
	return &hosting.Deployment{ID: "dpl-x", State: hosting.StateError}, nil
}

func TestRunNonReadyStateIsFailure(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, site := seedWebsite(t, st, "Stuck Build", 1)

	r := NewRunner(st, &brokenHosting{MockClient: hosting.NewMock()})
	summary, err := r.Run(ctx, Config{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	got, err := st.GetWebsite(ctx, site.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PreviewURL)
	assert.Nil(t, got.DeployedAt)
}
