package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"casetracker/internal/cache"
	"casetracker/internal/config"
	"casetracker/internal/database"
	"casetracker/internal/pdf"
	"casetracker/internal/scraper"
	"casetracker/internal/search"
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

func setupRouter(t *testing.T, stub *stubSearcher) (*gin.Engine, *gorm.DB, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log, err := logger.NewLogger("error", "console")
	require.NoError(t, err)

	cfg := &config.Config{
		CourtName:         "Delhi High Court",
		CaptchaScratchDir: t.TempDir(),
		DownloadsDir:      t.TempDir(),
		ScraperTimeout:    5 * time.Second,
		CaptchaPollLimit:  time.Second,
		CaptchaManualWait: time.Second,
	}

	svc := search.NewService(db, stub, cfg, log)
	pdfs := pdf.NewFetcher(cfg.DownloadsDir, log)
	testCache := cache.NewCache(100, time.Minute)

	router := gin.New()
	SetupRoutes(router, db, testCache, svc, pdfs, log, cfg)

	return router, db, cfg
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := setupRouter(t, &stubSearcher{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["database"])
}

func TestCaseTypesAPI(t *testing.T) {
	router, _, _ := setupRouter(t, &stubSearcher{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/case-types", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var types []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &types))
	assert.Contains(t, types, "Civil Suit")
}

func TestYearsAPI(t *testing.T) {
	router, _, _ := setupRouter(t, &stubSearcher{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/years", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var years []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &years))
	assert.Len(t, years, 20)
}

func TestGetCaseAPIMissingParams(t *testing.T) {
	router, _, _ := setupRouter(t, &stubSearcher{})

	for _, query := range []string{"", "?type=Civil+Suit", "?type=Civil+Suit&number=1234"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/case"+query, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "query %q", query)
	}
}

func TestGetCaseAPISuccessAndCache(t *testing.T) {
	stub := &stubSearcher{
		details: &scraper.CaseDetails{
			Parties: []scraper.Party{{Type: "Petitioner", Name: "Rajesh Kumar"}},
		},
		markup: "<html>ok</html>",
	}
	router, db, _ := setupRouter(t, stub)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/case?type=Civil+Suit&number=1234&year=2021", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var queries int64
	db.Model(&database.QueryLog{}).Count(&queries)
	assert.EqualValues(t, 1, queries)

	// second hit is served from cache, no new scrape or query log
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/case?type=Civil+Suit&number=1234&year=2021", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fromCache":true`)
	assert.Equal(t, 1, stub.calls)
}

func TestGetCaseAPINotFound(t *testing.T) {
	router, db, _ := setupRouter(t, &stubSearcher{err: scraper.ErrNotFound})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/case?type=Civil+Suit&number=9999&year=2021", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var result database.CaseResult
	require.NoError(t, db.First(&result).Error)
	assert.Equal(t, database.StatusNotFound, result.Status)
}

func TestGetCaseAPIScrapeFailure(t *testing.T) {
	router, db, _ := setupRouter(t, &stubSearcher{err: scraper.ErrLaunch})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/case?type=Civil+Suit&number=1234&year=2021", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var result database.CaseResult
	require.NoError(t, db.First(&result).Error)
	assert.Equal(t, database.StatusError, result.Status)
}

func TestSearchFormMissingFields(t *testing.T) {
	router, _, _ := setupRouter(t, &stubSearcher{})

	form := url.Values{"case_type": {"Civil Suit"}}
	req, _ := http.NewRequest(http.MethodPost, "/search", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "error=")
}

func TestSearchFormNotFoundRedirects(t *testing.T) {
	router, _, _ := setupRouter(t, &stubSearcher{err: scraper.ErrNotFound})

	form := url.Values{
		"case_type":   {"Civil Suit"},
		"case_number": {"9999"},
		"filing_year": {"2021"},
	}
	req, _ := http.NewRequest(http.MethodPost, "/search", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), url.QueryEscape("Case not found"))
}

func TestSolveCaptcha(t *testing.T) {
	router, _, cfg := setupRouter(t, &stubSearcher{})

	req, _ := http.NewRequest(http.MethodPost, "/api/captcha/ch1/solve",
		strings.NewReader(`{"solution":"AB12CD"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	data, err := os.ReadFile(filepath.Join(cfg.CaptchaScratchDir, "ch1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", string(data))
}

func TestSolveCaptchaRejectsBadFormat(t *testing.T) {
	router, _, _ := setupRouter(t, &stubSearcher{})

	req, _ := http.NewRequest(http.MethodPost, "/api/captcha/ch1/solve",
		strings.NewReader(`{"solution":"@@"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
