package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"casetracker/internal/cache"
	"casetracker/internal/config"
	"casetracker/internal/database"
	"casetracker/internal/pdf"
	"casetracker/internal/registry"
	"casetracker/internal/scraper"
	"casetracker/internal/search"
	"casetracker/pkg/logger"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	db     *gorm.DB
	cache  cache.Cache
	svc    *search.Service
	pdfs   *pdf.Fetcher
	logger *logger.Logger
	cfg    *config.Config
}

func NewHandlers(db *gorm.DB, cache cache.Cache, svc *search.Service, pdfs *pdf.Fetcher, logger *logger.Logger, cfg *config.Config) *Handlers {
	return &Handlers{
		db:     db,
		cache:  cache,
		svc:    svc,
		pdfs:   pdfs,
		logger: logger,
		cfg:    cfg,
	}
}

// caseView is the template-facing shape of a stored result.
type caseView struct {
	CaseType    string
	CaseNumber  string
	FilingYear  string
	Parties     []scraper.Party
	FilingDate  string
	NextHearing string
	Orders      []scraper.Order
	Status      string
}

func viewFromResult(res *database.CaseResult) caseView {
	v := caseView{
		CaseType:    res.CaseType,
		CaseNumber:  res.CaseNumber,
		FilingYear:  res.FilingYear,
		FilingDate:  res.FilingDateRaw,
		NextHearing: res.NextHearingRaw,
		Status:      res.Status,
	}
	if len(res.Parties) > 0 {
		json.Unmarshal(res.Parties, &v.Parties)
	}
	if len(res.Orders) > 0 {
		json.Unmarshal(res.Orders, &v.Orders)
	}
	return v
}

// redirectWithNotice sends the user back to the search form with a flash
// style message carried in the query string.
func redirectWithNotice(c *gin.Context, kind, msg string) {
	c.Redirect(http.StatusSeeOther, "/?"+kind+"="+url.QueryEscape(msg))
}

// HomePage renders the search form
func (h *Handlers) HomePage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":     "Court Case Tracker",
		"courtName": h.cfg.CourtName,
		"caseTypes": registry.CaseTypes(),
		"years":     registry.Years(),
		"error":     c.Query("error"),
		"notice":    c.Query("notice"),
	})
}

// SearchCase handles case search form submission
func (h *Handlers) SearchCase(c *gin.Context) {
	var req struct {
		CaseType   string `form:"case_type" binding:"required"`
		CaseNumber string `form:"case_number" binding:"required"`
		FilingYear string `form:"filing_year" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		redirectWithNotice(c, "error", "All fields are required")
		return
	}

	cacheKey := cache.GenerateCacheKey(req.CaseType, req.CaseNumber, req.FilingYear)
	if cached, found := h.cache.Get(cacheKey); found {
		h.logger.Info("Cache hit", "key", cacheKey)
		c.HTML(http.StatusOK, "results.html", gin.H{
			"case":      viewFromResult(cached),
			"fromCache": true,
		})
		return
	}

	outcome, err := h.svc.Run(c.Request.Context(), req.CaseType, req.CaseNumber, req.FilingYear, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.logger.Error("Search could not be recorded", "error", err)
		redirectWithNotice(c, "error", "An error occurred while searching for the case. Please try again.")
		return
	}

	switch outcome.Result.Status {
	case database.StatusSuccess:
		h.cache.Set(cacheKey, outcome.Result)
		c.HTML(http.StatusOK, "results.html", gin.H{
			"case":      viewFromResult(outcome.Result),
			"queryID":   outcome.Query.ID,
			"fromCache": false,
		})
	case database.StatusNotFound:
		redirectWithNotice(c, "error", "Case not found. Please check the case details and try again.")
	default:
		redirectWithNotice(c, "error", "An error occurred while searching for the case. Please try again.")
	}
}

// ViewResults re-renders a stored result
func (h *Handlers) ViewResults(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		redirectWithNotice(c, "error", "Invalid result ID")
		return
	}

	var result database.CaseResult
	if err := h.db.First(&result, id).Error; err != nil {
		redirectWithNotice(c, "error", "Result not found")
		return
	}

	c.HTML(http.StatusOK, "results.html", gin.H{
		"case": viewFromResult(&result),
	})
}

// DownloadPDF streams a court PDF as an attachment
func (h *Handlers) DownloadPDF(c *gin.Context) {
	rawURL := strings.TrimPrefix(c.Param("url"), "/")

	path, err := h.pdfs.Download(c.Request.Context(), rawURL)
	if err != nil {
		h.logger.Error("PDF download failed", "url", rawURL, "error", err)
		redirectWithNotice(c, "error", "PDF file not found or could not be downloaded.")
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

// CaseTypesAPI returns the static case-type list
func (h *Handlers) CaseTypesAPI(c *gin.Context) {
	c.JSON(http.StatusOK, registry.CaseTypes())
}

// YearsAPI returns the selectable filing years, most recent first
func (h *Handlers) YearsAPI(c *gin.Context) {
	c.JSON(http.StatusOK, registry.Years())
}

// History shows the 50 most recent queries, newest first
func (h *Handlers) History(c *gin.Context) {
	var searches []database.QueryLog
	if err := h.db.Preload("Result").
		Order("query_time DESC").
		Limit(50).
		Find(&searches).Error; err != nil {
		h.logger.Error("Failed to load search history", "error", err)
		redirectWithNotice(c, "error", "Error loading search history.")
		return
	}

	c.HTML(http.StatusOK, "history.html", gin.H{
		"searches": searches,
	})
}

// HealthCheck reports liveness plus store connectivity
func (h *Handlers) HealthCheck(c *gin.Context) {
	var count int64
	dbHealthy := h.db.Model(&database.QueryLog{}).Count(&count).Error == nil

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": dbHealthy,
		"cache":    h.cache.Stats(),
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

// GetCaseAPI handles JSON case searches
func (h *Handlers) GetCaseAPI(c *gin.Context) {
	caseType := c.Query("type")
	caseNumber := c.Query("number")
	filingYear := c.Query("year")

	if caseType == "" || caseNumber == "" || filingYear == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing required parameters: type, number, year",
		})
		return
	}

	cacheKey := cache.GenerateCacheKey(caseType, caseNumber, filingYear)
	if cached, found := h.cache.Get(cacheKey); found {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"data":      cached,
			"fromCache": true,
		})
		return
	}

	outcome, err := h.svc.Run(c.Request.Context(), caseType, caseNumber, filingYear, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	switch outcome.Result.Status {
	case database.StatusSuccess:
		h.cache.Set(cacheKey, outcome.Result)
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"data":      outcome.Result,
			"fromCache": false,
		})
	case database.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"status":  outcome.Result.Status,
			"error":   "Case not found",
		})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"status":  outcome.Result.Status,
			"error":   "Failed to fetch case data",
		})
	}
}

// ListCasesAPI returns stored results, paginated
func (h *Handlers) ListCasesAPI(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	var total int64
	h.db.Model(&database.CaseResult{}).Count(&total)

	var results []database.CaseResult
	h.db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&results)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    results,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// DownloadsAPI lists downloaded PDFs, newest first
func (h *Handlers) DownloadsAPI(c *gin.Context) {
	files, err := h.pdfs.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to list downloads",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    files,
	})
}

// CacheStats returns cache statistics
func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.cache.Stats(),
	})
}

// GetCaptcha returns a parked CAPTCHA image for manual solving
func (h *Handlers) GetCaptcha(c *gin.Context) {
	id := c.Param("id")

	data, err := os.ReadFile(filepath.Join(h.cfg.CaptchaScratchDir, filepath.Base(id)+".png"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "CAPTCHA not found",
		})
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}

// SolveCaptcha accepts a manual CAPTCHA solution
func (h *Handlers) SolveCaptcha(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Solution string `json:"solution" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request",
		})
		return
	}
	if !scraper.ValidateFormat(req.Solution) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Solution must be 4-8 alphanumeric characters",
		})
		return
	}

	path := filepath.Join(h.cfg.CaptchaScratchDir, filepath.Base(id)+".txt")
	if err := os.WriteFile(path, []byte(req.Solution), 0644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to save solution",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "CAPTCHA solution saved",
	})
}
