package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/localvantage/gridscan/internal/aggregate"
	"github.com/localvantage/gridscan/internal/model"
	"github.com/localvantage/gridscan/internal/scan"
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	business_name TEXT NOT NULL,
	config        TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scans (
	id           TEXT PRIMARY KEY,
	campaign_id  TEXT NOT NULL REFERENCES campaigns(id),
	status       TEXT NOT NULL DEFAULT 'queued',
	error        TEXT,
	result       TEXT,
	aggregation  TEXT,
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_scans_campaign_id ON scans(campaign_id);
CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	configJSON, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal campaign")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, business_name, config, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.BusinessName, string(configJSON), c.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert campaign")
}

func (s *SQLiteStore) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	row := s.db.QueryRowContext(ctx, `SELECT config FROM campaigns WHERE id = ?`, id)

	var configJSON string
	err := row.Scan(&configJSON)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("campaign not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get campaign")
	}

	var c model.Campaign
	if err := json.Unmarshal([]byte(configJSON), &c); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal campaign")
	}
	return &c, nil
}

func (s *SQLiteStore) ListCampaigns(ctx context.Context) ([]model.Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT config FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list campaigns")
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		var configJSON string
		if err := rows.Scan(&configJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan campaign")
		}
		var c model.Campaign
		if err := json.Unmarshal([]byte(configJSON), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal campaign")
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, eris.Wrap(rows.Err(), "sqlite: list campaigns iterate")
}

func (s *SQLiteStore) CreateScan(ctx context.Context, campaignID string) (*model.ScanRecord, error) {
	rec := &model.ScanRecord{
		ID:         uuid.New().String(),
		CampaignID: campaignID,
		Status:     model.ScanStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (id, campaign_id, status, started_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.CampaignID, string(rec.Status), rec.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert scan for campaign %s", campaignID)
	}
	return rec, nil
}

func (s *SQLiteStore) CompleteScan(ctx context.Context, scanID string, result *scan.FullResult, agg *aggregate.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal scan result")
	}
	aggJSON, err := json.Marshal(agg)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal aggregation")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, result = ?, aggregation = ?, completed_at = ? WHERE id = ?`,
		string(model.ScanStatusComplete), string(resultJSON), string(aggJSON), time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete scan %s", scanID)
	}
	return checkRowsAffected(res, "scan", scanID)
}

func (s *SQLiteStore) FailScan(ctx context.Context, scanID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(model.ScanStatusFailed), errMsg, time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail scan %s", scanID)
	}
	return checkRowsAffected(res, "scan", scanID)
}

func (s *SQLiteStore) GetScan(ctx context.Context, scanID string) (*model.ScanRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, campaign_id, status, error, started_at, completed_at FROM scans WHERE id = ?`,
		scanID,
	)

	var rec model.ScanRecord
	var errMsg sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(&rec.ID, &rec.CampaignID, &rec.Status, &errMsg, &rec.StartedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("scan not found: %s", scanID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get scan")
	}
	rec.Error = errMsg.String
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	return &rec, nil
}

func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error) {
	query := `SELECT id, campaign_id, status, error, started_at, completed_at FROM scans WHERE 1=1`
	var args []any

	if filter.CampaignID != "" {
		query += ` AND campaign_id = ?`
		args = append(args, filter.CampaignID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

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
		return nil, eris.Wrap(err, "sqlite: list scans")
	}
	defer rows.Close()

	var records []model.ScanRecord
	for rows.Next() {
		var rec model.ScanRecord
		var errMsg sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.Status, &errMsg, &rec.StartedAt, &completedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		rec.Error = errMsg.String
		if completedAt.Valid {
			t := completedAt.Time
			rec.CompletedAt = &t
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list scans iterate")
}

func (s *SQLiteStore) GetScanResult(ctx context.Context, scanID string) (*scan.FullResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT result FROM scans WHERE id = ?`, scanID)

	var resultJSON sql.NullString
	err := row.Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("scan not found: %s", scanID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get scan result")
	}
	if !resultJSON.Valid {
		return nil, eris.Errorf("scan %s has no stored result", scanID)
	}

	var result scan.FullResult
	if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal scan result")
	}
	return &result, nil
}

func (s *SQLiteStore) GetAggregation(ctx context.Context, scanID string) (*aggregate.Result, error) {
	row := s.db.QueryRowContext(ctx, `SELECT aggregation FROM scans WHERE id = ?`, scanID)
	return scanAggregation(row, scanID)
}

func (s *SQLiteStore) LatestAggregation(ctx context.Context, campaignID, excludeScanID string) (*aggregate.Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT aggregation FROM scans
		 WHERE campaign_id = ? AND status = ? AND id != ?
		 ORDER BY completed_at DESC LIMIT 1`,
		campaignID, string(model.ScanStatusComplete), excludeScanID,
	)

	agg, err := scanAggregation(row, campaignID)
	if err != nil && eris.Is(err, errNoAggregation) {
		return nil, nil
	}
	return agg, err
}

// helpers

var errNoAggregation = eris.New("no aggregation row")

type scannable interface {
	Scan(dest ...any) error
}

func scanAggregation(row scannable, id string) (*aggregate.Result, error) {
	var aggJSON sql.NullString
	err := row.Scan(&aggJSON)
	if err == sql.ErrNoRows {
		return nil, errNoAggregation
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get aggregation")
	}
	if !aggJSON.Valid {
		return nil, eris.Errorf("scan %s has no stored aggregation", id)
	}

	var agg aggregate.Result
	if err := json.Unmarshal([]byte(aggJSON.String), &agg); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal aggregation")
	}
	return &agg, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
