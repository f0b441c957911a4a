package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Host string
	Port string

	// Database settings
	DatabasePath string

	// Logging settings
	LogLevel  string
	LogFormat string

	// Cache settings
	CacheSize int
	CacheTTL  time.Duration

	// Court settings
	CourtBaseURL  string
	CaseStatusURL string
	CourtName     string

	// Scraper settings
	ScraperTimeout time.Duration
	ResultWait     time.Duration
	HeadlessMode   bool
	UserAgent      string
	BrowserPath    string

	// CAPTCHA settings
	CaptchaAPIKey     string
	CaptchaPollEvery  time.Duration
	CaptchaPollLimit  time.Duration
	CaptchaManualWait time.Duration
	CaptchaScratchDir string

	// PDF settings
	DownloadsDir     string
	PDFRetentionDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not an error if .env doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Host:              getEnv("HOST", "0.0.0.0"),
		Port:              getEnv("PORT", "8080"),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/court_cases.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		CourtBaseURL:      getEnv("COURT_BASE_URL", "https://delhihighcourt.nic.in"),
		CourtName:         getEnv("COURT_NAME", "Delhi High Court"),
		UserAgent:         getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		BrowserPath:       getEnv("ROD_BROWSER_PATH", ""),
		CaptchaAPIKey:     getEnv("CAPTCHA_API_KEY", ""),
		CaptchaScratchDir: getEnv("CAPTCHA_SCRATCH_DIR", "./data/captchas"),
		DownloadsDir:      getEnv("DOWNLOADS_DIR", "./data/downloads"),
	}
	cfg.CaseStatusURL = getEnv("CASE_STATUS_URL", cfg.CourtBaseURL+"/case-status")

	// Parse integer values
	var err error
	cfg.CacheSize, err = strconv.Atoi(getEnv("CACHE_SIZE", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SIZE: %w", err)
	}

	cacheTTL, err := strconv.Atoi(getEnv("CACHE_TTL", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = time.Duration(cacheTTL) * time.Minute

	scraperTimeout, err := strconv.Atoi(getEnv("SCRAPER_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCRAPER_TIMEOUT: %w", err)
	}
	cfg.ScraperTimeout = time.Duration(scraperTimeout) * time.Second

	resultWait, err := strconv.Atoi(getEnv("RESULT_WAIT", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESULT_WAIT: %w", err)
	}
	cfg.ResultWait = time.Duration(resultWait) * time.Second

	cfg.HeadlessMode = getEnv("HEADLESS_MODE", "true") == "true"

	pollEvery, err := strconv.Atoi(getEnv("CAPTCHA_POLL_INTERVAL", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid CAPTCHA_POLL_INTERVAL: %w", err)
	}
	cfg.CaptchaPollEvery = time.Duration(pollEvery) * time.Second

	pollLimit, err := strconv.Atoi(getEnv("CAPTCHA_POLL_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CAPTCHA_POLL_TIMEOUT: %w", err)
	}
	cfg.CaptchaPollLimit = time.Duration(pollLimit) * time.Second

	manualWait, err := strconv.Atoi(getEnv("CAPTCHA_MANUAL_WAIT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CAPTCHA_MANUAL_WAIT: %w", err)
	}
	cfg.CaptchaManualWait = time.Duration(manualWait) * time.Second

	cfg.PDFRetentionDays, err = strconv.Atoi(getEnv("PDF_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid PDF_RETENTION_DAYS: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
