// Package scraper drives a headless-browser session against the court's
// case-status portal and extracts the result page into a typed record.
package scraper

import (
	"context"
	"errors"

	"casetracker/internal/config"
	"casetracker/pkg/logger"
)

// sessionDriver is the browser session used for one search call.
type sessionDriver interface {
	Open() bool
	SubmitSearch(ctx context.Context, caseType, caseNumber, filingYear string) (string, error)
	Close()
}

// Scraper orchestrates one search per call. The browser session is
// request-scoped: every Search builds its own driver and releases it on all
// exit paths, so Scraper itself holds no mutable session state and is safe
// to share.
type Scraper struct {
	cfg       *config.Config
	log       *logger.Logger
	solver    *CaptchaSolver
	newDriver func() sessionDriver
}

func NewScraper(cfg *config.Config, log *logger.Logger) *Scraper {
	solver := NewCaptchaSolver(cfg, log)
	s := &Scraper{cfg: cfg, log: log, solver: solver}
	s.newDriver = func() sessionDriver {
		return NewDriver(cfg, log, solver)
	}
	return s
}

// Search runs one scrape attempt: open a session, submit the form, wait for
// an outcome marker, extract the record. Single attempt, no retries. It
// returns the extracted details together with the raw captured markup, or a
// typed failure (ErrLaunch, ErrNavigationTimeout, ErrCaptchaUnresolved,
// ErrExtraction, ErrNotFound).
func (s *Scraper) Search(ctx context.Context, caseType, caseNumber, filingYear string) (*CaseDetails, string, error) {
	drv := s.newDriver()
	defer drv.Close()

	if !drv.Open() {
		return nil, "", ErrLaunch
	}

	s.log.Info("Searching case",
		"case_type", caseType,
		"case_number", caseNumber,
		"filing_year", filingYear,
	)

	markup, err := drv.SubmitSearch(ctx, caseType, caseNumber, filingYear)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Info("Case not found",
				"case_type", caseType,
				"case_number", caseNumber,
				"filing_year", filingYear,
			)
		} else {
			s.log.Error("Search failed", "error", err)
		}
		return nil, "", err
	}

	details := Extract(markup)
	if details == nil {
		s.log.Error("Result markup did not parse")
		return nil, markup, ErrExtraction
	}

	return details, markup, nil
}
