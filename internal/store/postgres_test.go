package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpmusenge/local-biz-agent/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

var pgBusinessColumns = []string{
	"id", "name", "category", "address", "city", "state", "county", "phone", "email",
	"website_url", "has_website", "source", "source_id", "google_place_id", "status",
	"discovered_at", "enriched_at", "created_at", "updated_at",
}

func pgBusinessRow(id string, status model.BusinessStatus) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows(pgBusinessColumns).AddRow(
		id, "Ace Plumbing", "plumber", "12 Main St", "Springfield", "IL", "", "555-0100", "",
		nil, 0, "google_places", "src-1", "place-1", string(status),
		now, nil, now, now,
	)
}

func TestPostgresGetBusiness_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery("FROM businesses WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetBusiness(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetBusiness_OK(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery("FROM businesses WHERE id = \\$1").
		WithArgs("biz-1").
		WillReturnRows(pgBusinessRow("biz-1", model.StatusDiscovered))

	b, err := s.GetBusiness(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "Ace Plumbing", b.Name)
	assert.Equal(t, model.StatusDiscovered, b.Status)
	assert.False(t, b.HasWebsite)
	assert.Nil(t, b.WebsiteURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertBusiness_AssignsDefaults(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec("INSERT INTO businesses").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ins, err := s.InsertBusiness(context.Background(), &model.Business{
		Name: "Ace Plumbing", City: "Springfield", State: "IL",
		Source: "google_places", SourceID: "src-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ins.ID)
	assert.Equal(t, model.StatusDiscovered, ins.Status)
	assert.False(t, ins.DiscoveredAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertBusiness_UniqueViolation(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec("INSERT INTO businesses").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.InsertBusiness(context.Background(), &model.Business{
		Name: "Ace Plumbing", Source: "google_places", SourceID: "src-1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBusinessExistsByPlaceID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT 1 FROM businesses WHERE google_place_id = \\$1").
		WithArgs("place-1").
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := s.BusinessExistsByPlaceID(context.Background(), "place-1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM businesses WHERE google_place_id = \\$1").
		WithArgs("place-2").
		WillReturnError(pgx.ErrNoRows)

	exists, err = s.BusinessExistsByPlaceID(context.Background(), "place-2")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdvanceBusinessStatus_Forward(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery("FROM businesses WHERE id = \\$1").
		WithArgs("biz-1").
		WillReturnRows(pgBusinessRow("biz-1", model.StatusDiscovered))
	mock.ExpectExec("UPDATE businesses SET status = \\$1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.AdvanceBusinessStatus(context.Background(), "biz-1", model.StatusEnriched)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdvanceBusinessStatus_BackwardIsNoop(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// No UPDATE expected when the transition would move backward.
	mock.ExpectQuery("FROM businesses WHERE id = \\$1").
		WithArgs("biz-1").
		WillReturnRows(pgBusinessRow("biz-1", model.StatusDeployed))

	err := s.AdvanceBusinessStatus(context.Background(), "biz-1", model.StatusEnriched)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdvanceBusinessStatus_InvalidStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	err := s.AdvanceBusinessStatus(context.Background(), "biz-1", model.BusinessStatus("bogus"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarkWebsiteDeployed_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec("UPDATE generated_websites SET preview_url = \\$1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.MarkWebsiteDeployed(context.Background(), "missing", "https://example.test")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetStats(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM businesses GROUP BY status").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("discovered", 3).
			AddRow("deployed", 1))
	mock.ExpectQuery("SELECT source, COUNT\\(\\*\\) FROM businesses GROUP BY source").
		WillReturnRows(pgxmock.NewRows([]string{"source", "count"}).
			AddRow("google_places", 4))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM generated_websites").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM outreach_log").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	stats, err := s.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalBusinesses)
	assert.Equal(t, 3, stats.ByStatus[model.StatusDiscovered])
	assert.Equal(t, 1, stats.ByStatus[model.StatusDeployed])
	assert.Equal(t, 0, stats.ByStatus[model.StatusContacted])
	assert.Equal(t, 4, stats.BySource["google_places"])
	assert.Equal(t, 2, stats.TotalWebsites)
	assert.Equal(t, 1, stats.TotalOutreach)
	assert.NoError(t, mock.ExpectationsWereMet())
}
