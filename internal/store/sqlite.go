package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/jpmusenge/local-biz-agent/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	has_website     INTEGER NOT NULL DEFAULT 0,
	source          TEXT NOT NULL DEFAULT '',
	source_id       TEXT NOT NULL DEFAULT '',
	google_place_id TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'discovered',
	discovered_at   DATETIME NOT NULL,
	enriched_at     DATETIME,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS generated_websites (
	id               TEXT PRIMARY KEY,
	business_id      TEXT NOT NULL REFERENCES businesses(id),
	template_name    TEXT NOT NULL,
	variation_number INTEGER NOT NULL,
	html_content     TEXT NOT NULL,
	preview_url      TEXT,
	deployed_at      DATETIME,
	created_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS outreach_log (
	id           TEXT PRIMARY KEY,
	business_id  TEXT NOT NULL REFERENCES businesses(id),
	method       TEXT NOT NULL,
	notes        TEXT NOT NULL DEFAULT '',
	contacted_at DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_businesses_source_id
	ON businesses(source, source_id) WHERE source_id != '';
CREATE UNIQUE INDEX IF NOT EXISTS idx_businesses_place_id
	ON businesses(google_place_id) WHERE google_place_id != '';
CREATE INDEX IF NOT EXISTS idx_businesses_status ON businesses(status);
CREATE INDEX IF NOT EXISTS idx_businesses_has_website ON businesses(has_website);
CREATE INDEX IF NOT EXISTS idx_businesses_name_city
	ON businesses(name COLLATE NOCASE, city COLLATE NOCASE, state COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_websites_business_id ON generated_websites(business_id);
CREATE INDEX IF NOT EXISTS idx_websites_deployed_at ON generated_websites(deployed_at);
CREATE INDEX IF NOT EXISTS idx_outreach_business_id ON outreach_log(business_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const businessColumns = `id, name, category, address, city, state, county, phone, email,
	website_url, has_website, source, source_id, google_place_id, status,
	discovered_at, enriched_at, created_at, updated_at`

func (s *SQLiteStore) InsertBusiness(ctx context.Context, b *model.Business) (*model.Business, error) {
	ins := prepareBusinessInsert(b)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO businesses (`+businessColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ins.ID, ins.Name, ins.Category, ins.Address, ins.City, ins.State, ins.County,
		ins.Phone, ins.Email, ins.WebsiteURL, boolToInt(ins.HasWebsite),
		ins.Source, ins.SourceID, ins.GooglePlaceID, string(ins.Status),
		ins.DiscoveredAt, ins.EnrichedAt, ins.CreatedAt, ins.UpdatedAt,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "sqlite: insert business %q", ins.Name)
		}
		return nil, eris.Wrap(err, "sqlite: insert business")
	}
	return ins, nil
}

func (s *SQLiteStore) InsertBusinesses(ctx context.Context, batch []model.Business) (int, error) {
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

func (s *SQLiteStore) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = ?`, id)
	return scanBusiness(row)
}

func (s *SQLiteStore) GetBusinessBySource(ctx context.Context, source, sourceID string) (*model.Business, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE source = ? AND source_id = ?`,
		source, sourceID)
	return scanBusiness(row)
}

func (s *SQLiteStore) ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.State != "" {
		query += ` AND state = ? COLLATE NOCASE`
		args = append(args, filter.State)
	}
	if filter.City != "" {
		query += ` AND city = ? COLLATE NOCASE`
		args = append(args, filter.City)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.HasWebsite != nil {
		query += ` AND has_website = ?`
		args = append(args, boolToInt(*filter.HasWebsite))
	}
	query += ` ORDER BY discovered_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list businesses")
	}
	defer rows.Close()

	return collectBusinesses(rows)
}

func (s *SQLiteStore) BusinessesNeedingWebsites(ctx context.Context, limit int) ([]model.Business, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+businessColumns+` FROM businesses
		 WHERE has_website = 0 AND status IN (?, ?)
		 ORDER BY discovered_at DESC LIMIT ?`,
		string(model.StatusDiscovered), string(model.StatusEnriched), limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: businesses needing websites")
	}
	defer rows.Close()

	return collectBusinesses(rows)
}

func (s *SQLiteStore) UpdateBusiness(ctx context.Context, id string, upd BusinessUpdate) (*model.Business, error) {
	sets, args := buildBusinessUpdate(upd, sqlitePlaceholders{})
	if len(sets) == 0 {
		return s.GetBusiness(ctx, id)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE businesses SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update business %s", id)
	}
	if err := checkAffected(res, id); err != nil {
		return nil, err
	}
	return s.GetBusiness(ctx, id)
}

// AdvanceBusinessStatus moves a business forward in its lifecycle. Backward
// or same-stage transitions are silently ignored so status stays monotonic
// regardless of the order stages re-run in.
func (s *SQLiteStore) AdvanceBusinessStatus(ctx context.Context, id string, status model.BusinessStatus) error {
	if !status.Valid() {
		return eris.Errorf("sqlite: invalid status %q", status)
	}

	current, err := s.GetBusiness(ctx, id)
	if err != nil {
		return err
	}
	if !model.Advances(current.Status, status) {
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE businesses SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	return eris.Wrapf(err, "sqlite: advance business %s to %s", id, status)
}

func (s *SQLiteStore) MarkBusinessEnriched(ctx context.Context, id string, data EnrichmentData) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE businesses SET
			address = CASE WHEN ? != '' THEN ? ELSE address END,
			city    = CASE WHEN ? != '' THEN ? ELSE city END,
			state   = CASE WHEN ? != '' THEN ? ELSE state END,
			county  = CASE WHEN ? != '' THEN ? ELSE county END,
			phone   = CASE WHEN ? != '' THEN ? ELSE phone END,
			email   = CASE WHEN ? != '' THEN ? ELSE email END,
			enriched_at = ?, updated_at = ?
		 WHERE id = ?`,
		data.Address, data.Address, data.City, data.City, data.State, data.State,
		data.County, data.County, data.Phone, data.Phone, data.Email, data.Email,
		now, now, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark business enriched %s", id)
	}
	if err := checkAffected(res, id); err != nil {
		return err
	}
	return s.AdvanceBusinessStatus(ctx, id, model.StatusEnriched)
}

func (s *SQLiteStore) BusinessExistsBySource(ctx context.Context, source, sourceID string) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM businesses WHERE source = ? AND source_id = ? LIMIT 1`,
		source, sourceID)
}

func (s *SQLiteStore) BusinessExistsByPlaceID(ctx context.Context, placeID string) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM businesses WHERE google_place_id = ? LIMIT 1`, placeID)
}

func (s *SQLiteStore) BusinessExistsByNameCity(ctx context.Context, name, city, state string) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM businesses
		 WHERE name = ? COLLATE NOCASE AND city = ? COLLATE NOCASE AND state = ? COLLATE NOCASE
		 LIMIT 1`,
		name, city, state)
}

func (s *SQLiteStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: existence check")
	}
	return true, nil
}

func (s *SQLiteStore) InsertWebsite(ctx context.Context, w *model.GeneratedWebsite) (*model.GeneratedWebsite, error) {
	ins := *w
	if ins.ID == "" {
		ins.ID = uuid.New().String()
	}
	if ins.CreatedAt.IsZero() {
		ins.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generated_websites
			(id, business_id, template_name, variation_number, html_content, preview_url, deployed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ins.ID, ins.BusinessID, ins.TemplateName, ins.VariationNumber,
		ins.HTMLContent, ins.PreviewURL, ins.DeployedAt, ins.CreatedAt)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "sqlite: insert website for %s", ins.BusinessID)
		}
		return nil, eris.Wrap(err, "sqlite: insert website")
	}

	// The owning business's status reflects its most advanced completed
	// stage, so the first successful insert moves it to website_generated.
	if err := s.AdvanceBusinessStatus(ctx, ins.BusinessID, model.StatusWebsiteGenerated); err != nil {
		return nil, err
	}
	return &ins, nil
}

func (s *SQLiteStore) GetWebsite(ctx context.Context, id string) (*model.GeneratedWebsite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, business_id, template_name, variation_number, html_content, preview_url, deployed_at, created_at
		 FROM generated_websites WHERE id = ?`, id)
	return scanWebsite(row)
}

func (s *SQLiteStore) WebsitesPendingDeployment(ctx context.Context, limit int) ([]model.GeneratedWebsite, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, business_id, template_name, variation_number, html_content, preview_url, deployed_at, created_at
		 FROM generated_websites WHERE deployed_at IS NULL
		 ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: websites pending deployment")
	}
	defer rows.Close()

	var sites []model.GeneratedWebsite
	for rows.Next() {
		w, err := scanWebsite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *w)
	}
	return sites, eris.Wrap(rows.Err(), "sqlite: pending deployment iterate")
}

func (s *SQLiteStore) MarkWebsiteDeployed(ctx context.Context, id, previewURL string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE generated_websites SET preview_url = ?, deployed_at = ? WHERE id = ?`,
		previewURL, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark website deployed %s", id)
	}
	if err := checkAffected(res, id); err != nil {
		return err
	}

	w, err := s.GetWebsite(ctx, id)
	if err != nil {
		return err
	}
	return s.AdvanceBusinessStatus(ctx, w.BusinessID, model.StatusDeployed)
}

func (s *SQLiteStore) InsertOutreach(ctx context.Context, o *model.OutreachLog) (*model.OutreachLog, error) {
	ins := *o
	if ins.ID == "" {
		ins.ID = uuid.New().String()
	}
	if ins.ContactedAt.IsZero() {
		ins.ContactedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outreach_log (id, business_id, method, notes, contacted_at) VALUES (?, ?, ?, ?, ?)`,
		ins.ID, ins.BusinessID, string(ins.Method), ins.Notes, ins.ContactedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert outreach")
	}

	if err := s.AdvanceBusinessStatus(ctx, ins.BusinessID, model.StatusContacted); err != nil {
		return nil, err
	}
	return &ins, nil
}

func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus: make(map[model.BusinessStatus]int, len(model.AllStatuses)),
		BySource: make(map[string]int),
	}
	for _, st := range model.AllStatuses {
		stats.ByStatus[st] = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM businesses GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by status")
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		stats.ByStatus[model.BusinessStatus(status)] = n
		stats.TotalBusinesses += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by status iterate")
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT source, COUNT(*) FROM businesses GROUP BY source`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by source")
	}
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: scan source count")
		}
		stats.BySource[source] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats by source iterate")
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generated_websites`).Scan(&stats.TotalWebsites); err != nil {
		return nil, eris.Wrap(err, "sqlite: count websites")
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outreach_log`).Scan(&stats.TotalOutreach); err != nil {
		return nil, eris.Wrap(err, "sqlite: count outreach")
	}
	return stats, nil
}

// helpers

func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "id %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBusiness(row scannable) (*model.Business, error) {
	var b model.Business
	var websiteURL sql.NullString
	var hasWebsite int
	var status string
	var enrichedAt sql.NullTime

	err := row.Scan(&b.ID, &b.Name, &b.Category, &b.Address, &b.City, &b.State,
		&b.County, &b.Phone, &b.Email, &websiteURL, &hasWebsite, &b.Source,
		&b.SourceID, &b.GooglePlaceID, &status, &b.DiscoveredAt, &enrichedAt,
		&b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "business")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan business")
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

func collectBusinesses(rows *sql.Rows) ([]model.Business, error) {
	var out []model.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, eris.Wrap(rows.Err(), "iterate businesses")
}

func scanWebsite(row scannable) (*model.GeneratedWebsite, error) {
	var w model.GeneratedWebsite
	var previewURL sql.NullString
	var deployedAt sql.NullTime

	err := row.Scan(&w.ID, &w.BusinessID, &w.TemplateName, &w.VariationNumber,
		&w.HTMLContent, &previewURL, &deployedAt, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "website")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan website")
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

// prepareBusinessInsert fills defaults: id, timestamps, discovered status.
// Discovery inserts records that explicitly assert website absence, so a
// nil WebsiteURL stays nil rather than defaulting to empty string.
func prepareBusinessInsert(b *model.Business) *model.Business {
	ins := *b
	now := time.Now().UTC()
	if ins.ID == "" {
		ins.ID = uuid.New().String()
	}
	if ins.Status == "" {
		ins.Status = model.StatusDiscovered
	}
	if ins.DiscoveredAt.IsZero() {
		ins.DiscoveredAt = now
	}
	if ins.CreatedAt.IsZero() {
		ins.CreatedAt = now
	}
	ins.UpdatedAt = now
	return &ins
}

type sqlitePlaceholders struct{}

func (sqlitePlaceholders) Next() string { return "?" }

type placeholderSource interface {
	Next() string
}

// buildBusinessUpdate translates a partial update into SET clauses. Nil
// fields are skipped entirely.
func buildBusinessUpdate(upd BusinessUpdate, ph placeholderSource) ([]string, []any) {
	var sets []string
	var args []any

	add := func(col string, val any) {
		sets = append(sets, col+" = "+ph.Next())
		args = append(args, val)
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if upd.City != nil {
		add("city", *upd.City)
	}
	if upd.State != nil {
		add("state", *upd.State)
	}
	if upd.County != nil {
		add("county", *upd.County)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.WebsiteURL != nil {
		add("website_url", *upd.WebsiteURL)
	}
	if upd.HasWebsite != nil {
		add("has_website", boolToInt(*upd.HasWebsite))
	}
	return sets, args
}
