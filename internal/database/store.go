package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jobsync/internal/chunk"
	"jobsync/internal/database/migrations"
	"jobsync/internal/jobsync"
	"jobsync/internal/model"
	"jobsync/internal/projector"
)

// deleteBatch bounds the number of bound parameters in one DELETE.
const deleteBatch = 500

// SQLStore implements jobsync.JobStore over database/sql. Queries use $N
// placeholders in order of first appearance so the same text runs on
// SQLite and PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect migrations.Dialect
	path    string
	onClose func()
}

// DB returns the underlying connection pool.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Path returns the database location: a file path, ":memory:" or a redacted URL.
func (s *SQLStore) Path() string {
	return s.path
}

// Dialect reports which SQL dialect the store speaks.
func (s *SQLStore) Dialect() migrations.Dialect {
	return s.dialect
}

// Migrate brings the schema up to date.
func (s *SQLStore) Migrate() error {
	return migrations.MigrateUp(s.db, s.dialect)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db, s.dialect)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return err
}

// Business units

const businessUnitColumns = "id, title, title_slug, date_crawled, date_updated, associated_jobs, veteran_commit"

func (s *SQLStore) GetBusinessUnit(ctx context.Context, id int64) (*model.BusinessUnit, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+businessUnitColumns+" FROM business_units WHERE id = $1", id)

	var (
		bu               model.BusinessUnit
		crawled, updated sql.NullTime
	)
	err := row.Scan(&bu.ID, &bu.Title, &bu.TitleSlug, &crawled, &updated, &bu.AssociatedJobs, &bu.VeteranCommit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding business unit %d: %w", id, err)
	}
	bu.DateCrawled = timePtr(crawled)
	bu.DateUpdated = timePtr(updated)
	return &bu, nil
}

// SaveBusinessUnit upserts bu after recomputing its title slug and job count.
func (s *SQLStore) SaveBusinessUnit(ctx context.Context, bu *model.BusinessUnit) error {
	count, err := s.CountJobs(ctx, bu.ID)
	if err != nil {
		return err
	}
	bu.AssociatedJobs = count
	bu.TitleSlug = projector.Slug(bu.Title)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO business_units (`+businessUnitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			title_slug = excluded.title_slug,
			date_crawled = excluded.date_crawled,
			date_updated = excluded.date_updated,
			associated_jobs = excluded.associated_jobs,
			veteran_commit = excluded.veteran_commit`,
		bu.ID, bu.Title, bu.TitleSlug, utc(bu.DateCrawled), utc(bu.DateUpdated), bu.AssociatedJobs, bu.VeteranCommit)
	if err != nil {
		return fmt.Errorf("saving business unit %d: %w", bu.ID, err)
	}
	return nil
}

func (s *SQLStore) CountJobs(ctx context.Context, buid int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM job_listings WHERE buid = $1", buid).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting jobs for business unit %d: %w", buid, err)
	}
	return n, nil
}

// Job listings

const listingColumns = `id, uid, buid, title, title_slug, description,
	city, city_slug, state, state_slug, state_short,
	country, country_slug, country_short, zipcode, location,
	reqid, hitkey, link, onet, date_new, date_updated`

func (s *SQLStore) UIDs(ctx context.Context, buid int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT uid FROM job_listings WHERE buid = $1 ORDER BY uid", buid)
	if err != nil {
		return nil, fmt.Errorf("listing job uids: %w", err)
	}
	defer rows.Close()

	var uids []int64
	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scanning job uid: %w", err)
		}
		uids = append(uids, uid)
	}
	return uids, rows.Err()
}

func (s *SQLStore) GetJob(ctx context.Context, uid int64) (*model.JobListing, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+listingColumns+" FROM job_listings WHERE uid = $1", uid)

	var (
		l                model.JobListing
		created, updated sql.NullTime
	)
	err := row.Scan(&l.ID, &l.UID, &l.BusinessUnitID, &l.Title, &l.TitleSlug, &l.Description,
		&l.City, &l.CitySlug, &l.State, &l.StateSlug, &l.StateShort,
		&l.Country, &l.CountrySlug, &l.CountryShort, &l.Zipcode, &l.Location,
		&l.ReqID, &l.HitKey, &l.Link, &l.OnetCode, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding job %d: %w", uid, err)
	}
	l.DateNew = timePtr(created)
	l.DateUpdated = timePtr(updated)
	return &l, nil
}

// SaveJobs writes each listing under its own savepoint so a rejected row
// rolls back alone and the rest of the batch commits together.
func (s *SQLStore) SaveJobs(ctx context.Context, listings []model.JobListing) (*jobsync.SaveResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result := &jobsync.SaveResult{}
	for i := range listings {
		l := &listings[i]
		if _, err := tx.ExecContext(ctx, "SAVEPOINT save_job"); err != nil {
			return nil, fmt.Errorf("creating savepoint: %w", err)
		}

		if err := saveListing(ctx, tx, l); err != nil {
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT save_job"); rbErr != nil {
				return nil, fmt.Errorf("rolling back job %d: %w", l.UID, rbErr)
			}
			result.Failed = append(result.Failed, jobsync.RowError{UID: l.UID, Err: err})
		} else {
			result.Saved = append(result.Saved, l.UID)
		}

		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT save_job"); err != nil {
			return nil, fmt.Errorf("releasing savepoint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing jobs: %w", err)
	}
	return result, nil
}

// saveListing updates the row holding l.UID in place, or inserts a new one.
// l.ID is set to the row identity.
func saveListing(ctx context.Context, tx *sql.Tx, l *model.JobListing) error {
	if l.UID == 0 {
		return errors.New("job has no uid")
	}
	if l.DateNew == nil {
		return errors.New("job has no creation date")
	}

	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM job_listings WHERE uid = $1", l.UID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = tx.QueryRowContext(ctx, `
			INSERT INTO job_listings (uid, buid, title, title_slug, description,
				city, city_slug, state, state_slug, state_short,
				country, country_slug, country_short, zipcode, location,
				reqid, hitkey, link, onet, date_new, date_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
				$12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
			RETURNING id`,
			l.UID, l.BusinessUnitID, l.Title, l.TitleSlug, l.Description,
			l.City, l.CitySlug, l.State, l.StateSlug, l.StateShort,
			l.Country, l.CountrySlug, l.CountryShort, l.Zipcode, l.Location,
			l.ReqID, l.HitKey, l.Link, l.OnetCode, utc(l.DateNew), utc(l.DateUpdated)).Scan(&id)
		if err != nil {
			return fmt.Errorf("inserting job: %w", err)
		}
	case err != nil:
		return fmt.Errorf("finding job: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE job_listings SET buid = $1, title = $2, title_slug = $3, description = $4,
				city = $5, city_slug = $6, state = $7, state_slug = $8, state_short = $9,
				country = $10, country_slug = $11, country_short = $12, zipcode = $13, location = $14,
				reqid = $15, hitkey = $16, link = $17, onet = $18, date_new = $19, date_updated = $20
			WHERE id = $21`,
			l.BusinessUnitID, l.Title, l.TitleSlug, l.Description,
			l.City, l.CitySlug, l.State, l.StateSlug, l.StateShort,
			l.Country, l.CountrySlug, l.CountryShort, l.Zipcode, l.Location,
			l.ReqID, l.HitKey, l.Link, l.OnetCode, utc(l.DateNew), utc(l.DateUpdated), id)
		if err != nil {
			return fmt.Errorf("updating job: %w", err)
		}
	}
	l.ID = id
	return nil
}

func (s *SQLStore) DeleteJobs(ctx context.Context, uids []int64) (int64, error) {
	if len(uids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var deleted int64
	for batch := range chunk.Slices(uids, deleteBatch) {
		args := make([]any, len(batch))
		for i, uid := range batch {
			args[i] = uid
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM job_listings WHERE uid IN ("+placeholders(1, len(batch))+")", args...)
		if err != nil {
			return 0, fmt.Errorf("deleting jobs: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("counting deleted jobs: %w", err)
		}
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing deletes: %w", err)
	}
	return deleted, nil
}

func (s *SQLStore) DeleteJobsForBusinessUnit(ctx context.Context, buid int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM job_listings WHERE buid = $1", buid)
	if err != nil {
		return 0, fmt.Errorf("deleting jobs for business unit %d: %w", buid, err)
	}
	return res.RowsAffected()
}

// Taxonomy

// CodesFor returns the military occupation codes linked to onet, ordered by id.
func (s *SQLStore) CodesFor(ctx context.Context, onet string) ([]model.TaxonomyEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.code, m.title, m.branch
		FROM mocs m JOIN moc_onets o ON o.moc_id = m.id
		WHERE o.onet_code = $1
		ORDER BY m.id`, onet)
	if err != nil {
		return nil, fmt.Errorf("looking up codes for %s: %w", onet, err)
	}
	defer rows.Close()

	var entries []model.TaxonomyEntry
	for rows.Next() {
		var e model.TaxonomyEntry
		if err := rows.Scan(&e.ID, &e.Code, &e.Title, &e.Branch); err != nil {
			return nil, fmt.Errorf("scanning taxonomy entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveTaxonomyEntry upserts e and links it to each of the given onet codes.
func (s *SQLStore) SaveTaxonomyEntry(ctx context.Context, e model.TaxonomyEntry, onets ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO mocs (id, code, title, branch) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET code = excluded.code, title = excluded.title, branch = excluded.branch`,
		e.ID, e.Code, e.Title, e.Branch)
	if err != nil {
		return fmt.Errorf("saving taxonomy entry %d: %w", e.ID, err)
	}
	for _, onet := range onets {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO moc_onets (moc_id, onet_code) VALUES ($1, $2) ON CONFLICT DO NOTHING", e.ID, onet)
		if err != nil {
			return fmt.Errorf("linking taxonomy entry %d to %s: %w", e.ID, onet, err)
		}
	}
	return tx.Commit()
}

// Sync run tracking

func (s *SQLStore) CreateSyncRun(ctx context.Context, operation, parameters string) (*model.SyncRun, error) {
	run := &model.SyncRun{
		Operation:  operation,
		Parameters: parameters,
		Status:     "running",
		StartedAt:  time.Now().UTC(),
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sync_runs (operation, parameters, status, started_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		run.Operation, run.Parameters, run.Status, run.StartedAt).Scan(&run.ID)
	if err != nil {
		return nil, fmt.Errorf("creating sync run: %w", err)
	}
	return run, nil
}

func (s *SQLStore) FinishSyncRun(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE sync_runs SET finished_at = $1, status = $2 WHERE id = $3",
		time.Now().UTC(), status, id)
	if err != nil {
		return fmt.Errorf("finishing sync run: %w", err)
	}
	return nil
}

// ListSyncRuns returns the most recent runs, newest first.
func (s *SQLStore) ListSyncRuns(ctx context.Context, limit int) ([]*model.SyncRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operation, parameters, status, started_at, finished_at
		FROM sync_runs ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.SyncRun
	for rows.Next() {
		var (
			run      model.SyncRun
			finished sql.NullTime
		)
		if err := rows.Scan(&run.ID, &run.Operation, &run.Parameters, &run.Status, &run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		run.FinishedAt = timePtr(finished)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// placeholders renders n consecutive $N placeholders starting at start.
func placeholders(start, n int) string {
	var b strings.Builder
	for i := range n {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(start + i))
	}
	return b.String()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func utc(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// Compile-time checks that SQLStore implements the interfaces it serves.
var (
	_ jobsync.JobStore   = (*SQLStore)(nil)
	_ projector.Taxonomy = (*SQLStore)(nil)
)
