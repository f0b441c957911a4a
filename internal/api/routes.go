package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"casetracker/internal/cache"
	"casetracker/internal/config"
	"casetracker/internal/pdf"
	"casetracker/internal/search"
	"casetracker/pkg/logger"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, cache cache.Cache, svc *search.Service, pdfs *pdf.Fetcher, logger *logger.Logger, cfg *config.Config) {
	h := NewHandlers(db, cache, svc, pdfs, logger, cfg)

	// HTML routes
	router.GET("/", h.HomePage)
	router.POST("/search", h.SearchCase)
	router.GET("/results/:id", h.ViewResults)
	router.GET("/history", h.History)
	router.GET("/download/*url", h.DownloadPDF)
	router.GET("/health", h.HealthCheck)

	// API routes
	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/case-types", h.CaseTypesAPI)
		api.GET("/years", h.YearsAPI)

		api.GET("/case", h.GetCaseAPI)
		api.GET("/cases", h.ListCasesAPI)

		api.GET("/downloads", h.DownloadsAPI)
		api.GET("/cache/stats", h.CacheStats)

		// Manual CAPTCHA completion
		api.GET("/captcha/:id", h.GetCaptcha)
		api.POST("/captcha/:id/solve", h.SolveCaptcha)
	}
}
