package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localvantage/gridscan/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresCreateCampaign(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO campaigns`).
		WithArgs(pgxmock.AnyArg(), "Fielder Park", "Fielder Park Dental", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := testCampaign()
	err := s.CreateCampaign(context.Background(), c)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID, "an ID is assigned on insert")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetCampaign(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	c := testCampaign()
	c.ID = "camp-1"
	configJSON, err := json.Marshal(c)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT config FROM campaigns WHERE id = \$1`).
		WithArgs("camp-1").
		WillReturnRows(pgxmock.NewRows([]string{"config"}).AddRow(configJSON))

	got, err := s.GetCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, "Fielder Park Dental", got.BusinessName)
	assert.Equal(t, c.Keywords, got.Keywords)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetCampaignNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT config FROM campaigns`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCampaign(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "campaign not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateScan(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scans`).
		WithArgs(pgxmock.AnyArg(), "camp-1", string(model.ScanStatusRunning), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec, err := s.CreateScan(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, "camp-1", rec.CampaignID)
	assert.Equal(t, model.ScanStatusRunning, rec.Status)
	assert.NotEmpty(t, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteScan(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE scans SET status = \$1, result = \$2, aggregation = \$3`).
		WithArgs(string(model.ScanStatusComplete), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "scan-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.CompleteScan(context.Background(), "scan-1", testFullResult("scan-1", "camp-1"), testAggregation("scan-1"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteScanNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE scans`).
		WithArgs(string(model.ScanStatusComplete), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteScan(context.Background(), "missing", testFullResult("missing", "camp-1"), testAggregation("missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFailScan(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE scans SET status = \$1, error = \$2`).
		WithArgs(string(model.ScanStatusFailed), "quota exhausted", pgxmock.AnyArg(), "scan-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.FailScan(context.Background(), "scan-1", "quota exhausted"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetScan(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Now().UTC().Add(-time.Hour)
	completed := time.Now().UTC()
	errMsg := "partial failure"
	mock.ExpectQuery(`SELECT id, campaign_id, status, error, started_at, completed_at FROM scans`).
		WithArgs("scan-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "campaign_id", "status", "error", "started_at", "completed_at"}).
			AddRow("scan-1", "camp-1", model.ScanStatusComplete, &errMsg, started, &completed))

	rec, err := s.GetScan(context.Background(), "scan-1")
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusComplete, rec.Status)
	assert.Equal(t, "partial failure", rec.Error)
	require.NotNil(t, rec.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListScans(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, campaign_id, status, error, started_at, completed_at FROM scans WHERE 1=1 AND campaign_id = \$1`).
		WithArgs("camp-1", 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "campaign_id", "status", "error", "started_at", "completed_at"}).
			AddRow("scan-1", "camp-1", model.ScanStatusRunning, (*string)(nil), started, (*time.Time)(nil)))

	records, err := s.ListScans(context.Background(), ScanFilter{CampaignID: "camp-1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Error)
	assert.Nil(t, records[0].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetAggregation(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	aggJSON, err := json.Marshal(testAggregation("scan-1"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT aggregation FROM scans WHERE id = \$1`).
		WithArgs("scan-1").
		WillReturnRows(pgxmock.NewRows([]string{"aggregation"}).AddRow(aggJSON))

	agg, err := s.GetAggregation(context.Background(), "scan-1")
	require.NoError(t, err)
	assert.Equal(t, "ABC Dental", agg.Overall.TopCompetitor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLatestAggregationNone(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT aggregation FROM scans`).
		WithArgs("camp-1", string(model.ScanStatusComplete), "scan-1").
		WillReturnError(pgx.ErrNoRows)

	agg, err := s.LatestAggregation(context.Background(), "camp-1", "scan-1")
	require.NoError(t, err)
	assert.Nil(t, agg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLatestAggregation(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	aggJSON, err := json.Marshal(testAggregation("prev-scan"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT aggregation FROM scans`).
		WithArgs("camp-1", string(model.ScanStatusComplete), "scan-1").
		WillReturnRows(pgxmock.NewRows([]string{"aggregation"}).AddRow(aggJSON))

	agg, err := s.LatestAggregation(context.Background(), "camp-1", "scan-1")
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, "prev-scan", agg.ScanID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
