package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/jpmusenge/local-biz-agent/internal/model"
)

// pgxPool is the subset of pgxpool.Pool the store uses, narrowed so tests
// can substitute a mock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	address         TEXT NOT NULL DEFAULT '',
	city            TEXT NOT NULL DEFAULT '',
	state           TEXT NOT NULL DEFAULT '',
	county          TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	website_url     TEXT,
	has_website     SMALLINT NOT NULL DEFAULT 0,
	source          TEXT NOT NULL DEFAULT '',
	source_id       TEXT NOT NULL DEFAULT '',
	google_place_id TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'discovered',
	discovered_at   TIMESTAMPTZ NOT NULL,
	enriched_at     TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS generated_websites (
	id               TEXT PRIMARY KEY,
	business_id      TEXT NOT NULL REFERENCES businesses(id),
	template_name    TEXT NOT NULL,
	variation_number INTEGER NOT NULL,
	html_content     TEXT NOT NULL,
	preview_url      TEXT,
	deployed_at      TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS outreach_log (
	id           TEXT PRIMARY KEY,
	business_id  TEXT NOT NULL REFERENCES businesses(id),
	method       TEXT NOT NULL,
	notes        TEXT NOT NULL DEFAULT '',
	contacted_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_businesses_source_id
	ON businesses(source, source_id) WHERE source_id <> '';
CREATE UNIQUE INDEX IF NOT EXISTS idx_businesses_place_id
	ON businesses(google_place_id) WHERE google_place_id <> '';
CREATE INDEX IF NOT EXISTS idx_businesses_status ON businesses(status);
CREATE INDEX IF NOT EXISTS idx_businesses_has_website ON businesses(has_website);
CREATE INDEX IF NOT EXISTS idx_businesses_name_city
	ON businesses(lower(name), lower(city), lower(state));
CREATE INDEX IF NOT EXISTS idx_websites_business_id ON generated_websites(business_id);
CREATE INDEX IF NOT EXISTS idx_websites_deployed_at ON generated_websites(deployed_at);
CREATE INDEX IF NOT EXISTS idx_outreach_business_id ON outreach_log(business_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) InsertBusiness(ctx context.Context, b *model.Business) (*model.Business, error) {
	ins := prepareBusinessInsert(b)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO businesses (`+businessColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		ins.ID, ins.Name, ins.Category, ins.Address, ins.City, ins.State, ins.County,
		ins.Phone, ins.Email, ins.WebsiteURL, boolToInt(ins.HasWebsite),
		ins.Source, ins.SourceID, ins.GooglePlaceID, string(ins.Status),
		ins.DiscoveredAt, ins.EnrichedAt, ins.CreatedAt, ins.UpdatedAt,
	)
	if err != nil {
		if isPostgresUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "postgres: insert business %q", ins.Name)
		}
		return nil, eris.Wrap(err, "postgres: insert business")
	}
	return ins, nil
}

func (s *PostgresStore) InsertBusinesses(ctx context.Context, batch []model.Business) (int, error) {
	inserted := 0
	for i := range batch {
		if _, err := s.InsertBusiness(ctx, &batch[i]); err != nil {
			if eris.Is(err, ErrDuplicate) {
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (s *PostgresStore) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id)
	return scanPGBusiness(row)
}

func (s *PostgresStore) GetBusinessBySource(ctx context.Context, source, sourceID string) (*model.Business, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE source = $1 AND source_id = $2`,
		source, sourceID)
	return scanPGBusiness(row)
}

func (s *PostgresStore) ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE 1=1`
	var args []any
	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = ` + fmt.Sprintf("$%d", len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		query += ` AND source = ` + fmt.Sprintf("$%d", len(args))
	}
	if filter.State != "" {
		query += ` AND lower(state) = lower(` + next() + `)`
		args = append(args, filter.State)
	}
	if filter.City != "" {
		query += ` AND lower(city) = lower(` + next() + `)`
		args = append(args, filter.City)
	}
	if filter.Category != "" {
		query += ` AND category = ` + next()
		args = append(args, filter.Category)
	}
	if filter.HasWebsite != nil {
		query += ` AND has_website = ` + next()
		args = append(args, boolToInt(*filter.HasWebsite))
	}
	query += ` ORDER BY discovered_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + next()
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ` + next()
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list businesses")
	}
	defer rows.Close()

	return collectPGBusinesses(rows)
}

func (s *PostgresStore) BusinessesNeedingWebsites(ctx context.Context, limit int) ([]model.Business, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+businessColumns+` FROM businesses
		 WHERE has_website = 0 AND status IN ($1, $2)
		 ORDER BY discovered_at DESC LIMIT $3`,
		string(model.StatusDiscovered), string(model.StatusEnriched), limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: businesses needing websites")
	}
	defer rows.Close()

	return collectPGBusinesses(rows)
}

func (s *PostgresStore) UpdateBusiness(ctx context.Context, id string, upd BusinessUpdate) (*model.Business, error) {
	sets, args := buildBusinessUpdate(upd, &pgPlaceholders{})
	if len(sets) == 0 {
		return s.GetBusiness(ctx, id)
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		`UPDATE businesses SET `+strings.Join(sets, ", ")+fmt.Sprintf(` WHERE id = $%d`, len(args)),
		args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update business %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, eris.Wrapf(ErrNotFound, "id %s", id)
	}
	return s.GetBusiness(ctx, id)
}

func (s *PostgresStore) AdvanceBusinessStatus(ctx context.Context, id string, status model.BusinessStatus) error {
	if !status.Valid() {
		return eris.Errorf("postgres: invalid status %q", status)
	}

	current, err := s.GetBusiness(ctx, id)
	if err != nil {
		return err
	}
	if !model.Advances(current.Status, status) {
		return nil
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE businesses SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id)
	return eris.Wrapf(err, "postgres: advance business %s to %s", id, status)
}

func (s *PostgresStore) MarkBusinessEnriched(ctx context.Context, id string, data EnrichmentData) error {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE businesses SET
			address = CASE WHEN $1 <> '' THEN $1 ELSE address END,
			city    = CASE WHEN $2 <> '' THEN $2 ELSE city END,
			state   = CASE WHEN $3 <> '' THEN $3 ELSE state END,
			county  = CASE WHEN $4 <> '' THEN $4 ELSE county END,
			phone   = CASE WHEN $5 <> '' THEN $5 ELSE phone END,
			email   = CASE WHEN $6 <> '' THEN $6 ELSE email END,
			enriched_at = $7, updated_at = $7
		 WHERE id = $8`,
		data.Address, data.City, data.State, data.County, data.Phone, data.Email, now, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark business enriched %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "id %s", id)
	}
	return s.AdvanceBusinessStatus(ctx, id, model.StatusEnriched)
}

func (s *PostgresStore) BusinessExistsBySource(ctx context.Context, source, sourceID string) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM businesses WHERE source = $1 AND source_id = $2 LIMIT 1`,
		source, sourceID)
}

func (s *PostgresStore) BusinessExistsByPlaceID(ctx context.Context, placeID string) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM businesses WHERE google_place_id = $1 LIMIT 1`, placeID)
}

func (s *PostgresStore) BusinessExistsByNameCity(ctx context.Context, name, city, state string) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM businesses
		 WHERE lower(name) = lower($1) AND lower(city) = lower($2) AND lower(state) = lower($3)
		 LIMIT 1`,
		name, city, state)
}

func (s *PostgresStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "postgres: existence check")
	}
	return true, nil
}

func (s *PostgresStore) InsertWebsite(ctx context.Context, w *model.GeneratedWebsite) (*model.GeneratedWebsite, error) {
	ins := *w
	if ins.ID == "" {
		ins.ID = uuid.New().String()
	}
	if ins.CreatedAt.IsZero() {
		ins.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO generated_websites
			(id, business_id, template_name, variation_number, html_content, preview_url, deployed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ins.ID, ins.BusinessID, ins.TemplateName, ins.VariationNumber,
		ins.HTMLContent, ins.PreviewURL, ins.DeployedAt, ins.CreatedAt)
	if err != nil {
		if isPostgresUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "postgres: insert website for %s", ins.BusinessID)
		}
		return nil, eris.Wrap(err, "postgres: insert website")
	}

	if err := s.AdvanceBusinessStatus(ctx, ins.BusinessID, model.StatusWebsiteGenerated); err != nil {
		return nil, err
	}
	return &ins, nil
}

func (s *PostgresStore) GetWebsite(ctx context.Context, id string) (*model.GeneratedWebsite, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, business_id, template_name, variation_number, html_content, preview_url, deployed_at, created_at
		 FROM generated_websites WHERE id = $1`, id)
	return scanPGWebsite(row)
}

func (s *PostgresStore) WebsitesPendingDeployment(ctx context.Context, limit int) ([]model.GeneratedWebsite, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, business_id, template_name, variation_number, html_content, preview_url, deployed_at, created_at
		 FROM generated_websites WHERE deployed_at IS NULL
		 ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: websites pending deployment")
	}
	defer rows.Close()

	var sites []model.GeneratedWebsite
	for rows.Next() {
		w, err := scanPGWebsite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *w)
	}
	return sites, eris.Wrap(rows.Err(), "postgres: pending deployment iterate")
}

func (s *PostgresStore) MarkWebsiteDeployed(ctx context.Context, id, previewURL string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE generated_websites SET preview_url = $1, deployed_at = $2 WHERE id = $3`,
		previewURL, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark website deployed %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "id %s", id)
	}

	w, err := s.GetWebsite(ctx, id)
	if err != nil {
		return err
	}
	return s.AdvanceBusinessStatus(ctx, w.BusinessID, model.StatusDeployed)
}

func (s *PostgresStore) InsertOutreach(ctx context.Context, o *model.OutreachLog) (*model.OutreachLog, error) {
	ins := *o
	if ins.ID == "" {
		ins.ID = uuid.New().String()
	}
	if ins.ContactedAt.IsZero() {
		ins.ContactedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO outreach_log (id, business_id, method, notes, contacted_at) VALUES ($1, $2, $3, $4, $5)`,
		ins.ID, ins.BusinessID, string(ins.Method), ins.Notes, ins.ContactedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert outreach")
	}

	if err := s.AdvanceBusinessStatus(ctx, ins.BusinessID, model.StatusContacted); err != nil {
		return nil, err
	}
	return &ins, nil
}

func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus: make(map[model.BusinessStatus]int, len(model.AllStatuses)),
		BySource: make(map[string]int),
	}
	for _, st := range model.AllStatuses {
		stats.ByStatus[st] = 0
	}

	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM businesses GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats by status")
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		stats.ByStatus[model.BusinessStatus(status)] = n
		stats.TotalBusinesses += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: stats by status iterate")
	}

	rows, err = s.pool.Query(ctx, `SELECT source, COUNT(*) FROM businesses GROUP BY source`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats by source")
	}
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan source count")
		}
		stats.BySource[source] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: stats by source iterate")
	}

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM generated_websites`).Scan(&stats.TotalWebsites); err != nil {
		return nil, eris.Wrap(err, "postgres: count websites")
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM outreach_log`).Scan(&stats.TotalOutreach); err != nil {
		return nil, eris.Wrap(err, "postgres: count outreach")
	}
	return stats, nil
}

// helpers

func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type pgPlaceholders struct {
	n int
}

func (p *pgPlaceholders) Next() string {
	p.n++
	return fmt.Sprintf("$%d", p.n)
}

func scanPGBusiness(row pgx.Row) (*model.Business, error) {
	var b model.Business
	var websiteURL sql.NullString
	var hasWebsite int
	var status string
	var enrichedAt sql.NullTime

	err := row.Scan(&b.ID, &b.Name, &b.Category, &b.Address, &b.City, &b.State,
		&b.County, &b.Phone, &b.Email, &websiteURL, &hasWebsite, &b.Source,
		&b.SourceID, &b.GooglePlaceID, &status, &b.DiscoveredAt, &enrichedAt,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, "business")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan business")
	}

	if websiteURL.Valid {
		b.WebsiteURL = &websiteURL.String
	}
	b.HasWebsite = hasWebsite != 0
	b.Status = model.BusinessStatus(status)
	if enrichedAt.Valid {
		t := enrichedAt.Time
		b.EnrichedAt = &t
	}
	return &b, nil
}

func collectPGBusinesses(rows pgx.Rows) ([]model.Business, error) {
	var out []model.Business
	for rows.Next() {
		b, err := scanPGBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate businesses")
}

func scanPGWebsite(row pgx.Row) (*model.GeneratedWebsite, error) {
	var w model.GeneratedWebsite
	var previewURL sql.NullString
	var deployedAt sql.NullTime

	err := row.Scan(&w.ID, &w.BusinessID, &w.TemplateName, &w.VariationNumber,
		&w.HTMLContent, &previewURL, &deployedAt, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, "website")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan website")
	}

	if previewURL.Valid {
		w.PreviewURL = &previewURL.String
	}
	if deployedAt.Valid {
		t := deployedAt.Time
		w.DeployedAt = &t
	}
	return &w, nil
}
