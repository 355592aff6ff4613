package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/localvantage/gridscan/internal/aggregate"
	"github.com/localvantage/gridscan/internal/model"
	"github.com/localvantage/gridscan/internal/scan"
)

// Pool is the subset of pgxpool.Pool the store uses. Kept small so tests can
// substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	business_name TEXT NOT NULL,
	config        JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scans (
	id           TEXT PRIMARY KEY,
	campaign_id  TEXT NOT NULL REFERENCES campaigns(id),
	status       TEXT NOT NULL DEFAULT 'queued',
	error        TEXT,
	result       JSONB,
	aggregation  JSONB,
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_scans_campaign_id ON scans(campaign_id);
CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	configJSON, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal campaign")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO campaigns (id, name, business_name, config, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.BusinessName, configJSON, c.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert campaign")
}

func (s *PostgresStore) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	var configJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT config FROM campaigns WHERE id = $1`, id).Scan(&configJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("campaign not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get campaign")
	}

	var c model.Campaign
	if err := json.Unmarshal(configJSON, &c); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal campaign")
	}
	return &c, nil
}

func (s *PostgresStore) ListCampaigns(ctx context.Context) ([]model.Campaign, error) {
	rows, err := s.pool.Query(ctx, `SELECT config FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list campaigns")
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		var configJSON []byte
		if err := rows.Scan(&configJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan campaign")
		}
		var c model.Campaign
		if err := json.Unmarshal(configJSON, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal campaign")
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, eris.Wrap(rows.Err(), "postgres: list campaigns iterate")
}

func (s *PostgresStore) CreateScan(ctx context.Context, campaignID string) (*model.ScanRecord, error) {
	rec := &model.ScanRecord{
		ID:         uuid.New().String(),
		CampaignID: campaignID,
		Status:     model.ScanStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO scans (id, campaign_id, status, started_at) VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.CampaignID, string(rec.Status), rec.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert scan for campaign %s", campaignID)
	}
	return rec, nil
}

func (s *PostgresStore) CompleteScan(ctx context.Context, scanID string, result *scan.FullResult, agg *aggregate.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal scan result")
	}
	aggJSON, err := json.Marshal(agg)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal aggregation")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET status = $1, result = $2, aggregation = $3, completed_at = $4 WHERE id = $5`,
		string(model.ScanStatusComplete), resultJSON, aggJSON, time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete scan %s", scanID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("scan not found: %s", scanID)
	}
	return nil
}

func (s *PostgresStore) FailScan(ctx context.Context, scanID string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
		string(model.ScanStatusFailed), errMsg, time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail scan %s", scanID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("scan not found: %s", scanID)
	}
	return nil
}

func (s *PostgresStore) GetScan(ctx context.Context, scanID string) (*model.ScanRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, campaign_id, status, error, started_at, completed_at FROM scans WHERE id = $1`,
		scanID,
	)

	var rec model.ScanRecord
	var errMsg *string
	var completedAt *time.Time
	err := row.Scan(&rec.ID, &rec.CampaignID, &rec.Status, &errMsg, &rec.StartedAt, &completedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("scan not found: %s", scanID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get scan")
	}
	if errMsg != nil {
		rec.Error = *errMsg
	}
	rec.CompletedAt = completedAt
	return &rec, nil
}

func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error) {
	query := `SELECT id, campaign_id, status, error, started_at, completed_at FROM scans WHERE 1=1`
	var args []any

	if filter.CampaignID != "" {
		args = append(args, filter.CampaignID)
		query += ` AND campaign_id = $1`
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	var records []model.ScanRecord
	for rows.Next() {
		var rec model.ScanRecord
		var errMsg *string
		var completedAt *time.Time
		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.Status, &errMsg, &rec.StartedAt, &completedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		if errMsg != nil {
			rec.Error = *errMsg
		}
		rec.CompletedAt = completedAt
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list scans iterate")
}

func (s *PostgresStore) GetScanResult(ctx context.Context, scanID string) (*scan.FullResult, error) {
	var resultJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT result FROM scans WHERE id = $1`, scanID).Scan(&resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("scan not found: %s", scanID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get scan result")
	}
	if len(resultJSON) == 0 {
		return nil, eris.Errorf("scan %s has no stored result", scanID)
	}

	var result scan.FullResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal scan result")
	}
	return &result, nil
}

func (s *PostgresStore) GetAggregation(ctx context.Context, scanID string) (*aggregate.Result, error) {
	var aggJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT aggregation FROM scans WHERE id = $1`, scanID).Scan(&aggJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("scan not found: %s", scanID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get aggregation")
	}
	if len(aggJSON) == 0 {
		return nil, eris.Errorf("scan %s has no stored aggregation", scanID)
	}

	var agg aggregate.Result
	if err := json.Unmarshal(aggJSON, &agg); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal aggregation")
	}
	return &agg, nil
}

func (s *PostgresStore) LatestAggregation(ctx context.Context, campaignID, excludeScanID string) (*aggregate.Result, error) {
	var aggJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT aggregation FROM scans
		 WHERE campaign_id = $1 AND status = $2 AND id != $3
		 ORDER BY completed_at DESC LIMIT 1`,
		campaignID, string(model.ScanStatusComplete), excludeScanID,
	).Scan(&aggJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest aggregation")
	}
	if len(aggJSON) == 0 {
		return nil, nil
	}

	var agg aggregate.Result
	if err := json.Unmarshal(aggJSON, &agg); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal aggregation")
	}
	return &agg, nil
}
