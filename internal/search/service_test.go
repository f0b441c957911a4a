package search

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"casetracker/internal/config"
	"casetracker/internal/database"
	"casetracker/internal/scraper"
	"casetracker/pkg/logger"
)

type stubSearcher struct {
	details *scraper.CaseDetails
	markup  string
	err     error
	calls   int
}

func (s *stubSearcher) Search(ctx context.Context, caseType, caseNumber, filingYear string) (*scraper.CaseDetails, string, error) {
	s.calls++
	return s.details, s.markup, s.err
}

func setupService(t *testing.T, stub *stubSearcher) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log, err := logger.NewLogger("error", "console")
	require.NoError(t, err)

	cfg := &config.Config{
		ScraperTimeout:    5 * time.Second,
		CaptchaPollLimit:  time.Second,
		CaptchaManualWait: time.Second,
	}
	return NewService(db, stub, cfg, log), db
}

func TestRunSuccessStoresResult(t *testing.T) {
	stub := &stubSearcher{
		details: &scraper.CaseDetails{
			Parties: []scraper.Party{
				{Type: "Petitioner", Name: "Rajesh Kumar"},
				{Type: "Respondent", Name: "State of Delhi"},
			},
			FilingDate:      "15-03-2021",
			NextHearingDate: "not a date",
			Orders: []scraper.Order{
				{Date: "10-01-2024", Title: "Interim Order", URL: "https://example.com/o.pdf"},
			},
		},
		markup: "<html>captured</html>",
	}
	svc, db := setupService(t, stub)

	outcome, err := svc.Run(context.Background(), "Civil Suit", "1234", "2021", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.True(t, outcome.Found())
	assert.Equal(t, database.StatusSuccess, outcome.Result.Status)
	assert.Equal(t, outcome.Query.ID, outcome.Result.QueryLogID)
	assert.Equal(t, "<html>captured</html>", outcome.Result.RawResponse)

	// parsed date stored alongside the raw text
	require.NotNil(t, outcome.Result.FilingDate)
	assert.Equal(t, "15-03-2021", outcome.Result.FilingDateRaw)
	assert.Equal(t, 2021, outcome.Result.FilingDate.Year())

	// unparsable date degrades to raw-only
	assert.Nil(t, outcome.Result.NextHearing)
	assert.Equal(t, "not a date", outcome.Result.NextHearingRaw)

	var stored database.CaseResult
	require.NoError(t, db.First(&stored, outcome.Result.ID).Error)
	var parties []scraper.Party
	require.NoError(t, json.Unmarshal(stored.Parties, &parties))
	assert.Len(t, parties, 2)
}

func TestRunNotFoundStoresResult(t *testing.T) {
	stub := &stubSearcher{err: scraper.ErrNotFound}
	svc, db := setupService(t, stub)

	outcome, err := svc.Run(context.Background(), "Civil Suit", "9999", "2021", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.False(t, outcome.Found())
	assert.Nil(t, outcome.Details)
	assert.Equal(t, database.StatusNotFound, outcome.Result.Status)

	var count int64
	db.Model(&database.CaseResult{}).Where("query_log_id = ?", outcome.Query.ID).Count(&count)
	assert.EqualValues(t, 1, count, "exactly one result per query")
}

func TestRunFailureStoresResult(t *testing.T) {
	stub := &stubSearcher{err: scraper.ErrLaunch}
	svc, db := setupService(t, stub)

	outcome, err := svc.Run(context.Background(), "Civil Suit", "1234", "2021", "10.0.0.1", "test-agent")
	require.NoError(t, err, "scrape failures map to a status, not an error")
	assert.Equal(t, database.StatusError, outcome.Result.Status)

	var query database.QueryLog
	require.NoError(t, db.Preload("Result").First(&query, outcome.Query.ID).Error)
	require.NotNil(t, query.Result)
	assert.Equal(t, database.StatusError, query.Result.Status)
}

func TestRunEveryAttemptIsLogged(t *testing.T) {
	stub := &stubSearcher{err: scraper.ErrNavigationTimeout}
	svc, db := setupService(t, stub)

	for i := 0; i < 3; i++ {
		_, err := svc.Run(context.Background(), "Tax Case", "42", "2020", "10.0.0.1", "test-agent")
		require.NoError(t, err)
	}

	var queries, results int64
	db.Model(&database.QueryLog{}).Count(&queries)
	db.Model(&database.CaseResult{}).Count(&results)
	assert.EqualValues(t, 3, queries)
	assert.EqualValues(t, 3, results)
	assert.Equal(t, 3, stub.calls)
}
