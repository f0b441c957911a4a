// Package search runs one case search end to end: log the query, scrape the
// portal, persist exactly one result with its outcome status.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"casetracker/internal/config"
	"casetracker/internal/database"
	"casetracker/internal/scraper"
	"casetracker/pkg/logger"
)

// CaseSearcher is the scrape operation the service drives.
type CaseSearcher interface {
	Search(ctx context.Context, caseType, caseNumber, filingYear string) (*scraper.CaseDetails, string, error)
}

// Outcome bundles the persisted query/result pair with the extracted
// details (nil unless the result status is success).
type Outcome struct {
	Query   *database.QueryLog
	Result  *database.CaseResult
	Details *scraper.CaseDetails
}

// Found reports whether the search produced case data.
func (o *Outcome) Found() bool {
	return o.Result.Status == database.StatusSuccess
}

type Service struct {
	db       *gorm.DB
	searcher CaseSearcher
	cfg      *config.Config
	log      *logger.Logger
}

func NewService(db *gorm.DB, searcher CaseSearcher, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{db: db, searcher: searcher, cfg: cfg, log: log}
}

// Run logs the query, performs the scrape, and writes the result row. Scrape
// failures are not returned as errors: they are mapped onto the result's
// status tag so every attempt stays auditable. The returned error covers
// store failures only.
func (s *Service) Run(ctx context.Context, caseType, caseNumber, filingYear, ipAddress, userAgent string) (*Outcome, error) {
	query := &database.QueryLog{
		CaseType:   caseType,
		CaseNumber: caseNumber,
		FilingYear: filingYear,
		QueryTime:  time.Now(),
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	}
	if err := s.db.Create(query).Error; err != nil {
		return nil, fmt.Errorf("logging query: %w", err)
	}

	sctx, cancel := context.WithTimeout(ctx, s.searchBudget())
	defer cancel()

	details, rawMarkup, err := s.searcher.Search(sctx, caseType, caseNumber, filingYear)

	result := &database.CaseResult{
		QueryLogID:  query.ID,
		CaseType:    caseType,
		CaseNumber:  caseNumber,
		FilingYear:  filingYear,
		RawResponse: rawMarkup,
	}

	switch {
	case err == nil:
		result.Status = database.StatusSuccess
		s.populate(result, details)
	case errors.Is(err, scraper.ErrNotFound):
		result.Status = database.StatusNotFound
		result.RawResponse = "Case not found"
		details = nil
	default:
		result.Status = database.StatusError
		details = nil
	}

	if err := s.db.Create(result).Error; err != nil {
		return nil, fmt.Errorf("saving result: %w", err)
	}

	return &Outcome{Query: query, Result: result, Details: details}, nil
}

// populate copies extracted details into the result row, parsing dates where
// the raw text allows it.
func (s *Service) populate(result *database.CaseResult, details *scraper.CaseDetails) {
	parties := details.Parties
	if parties == nil {
		parties = []scraper.Party{}
	}
	orders := details.Orders
	if orders == nil {
		orders = []scraper.Order{}
	}
	if data, err := json.Marshal(parties); err == nil {
		result.Parties = datatypes.JSON(data)
	}
	if data, err := json.Marshal(orders); err == nil {
		result.Orders = datatypes.JSON(data)
	}

	result.FilingDateRaw = details.FilingDate
	if details.FilingDate != "" {
		if t, err := database.ParseCourtDate(details.FilingDate); err == nil {
			result.FilingDate = &t
		} else {
			s.log.Warn("Unparsable filing date", "raw", details.FilingDate)
		}
	}

	result.NextHearingRaw = details.NextHearingDate
	if details.NextHearingDate != "" {
		if t, err := database.ParseCourtDate(details.NextHearingDate); err == nil {
			result.NextHearing = &t
		} else {
			s.log.Warn("Unparsable next hearing date", "raw", details.NextHearingDate)
		}
	}
}

// searchBudget bounds one scrape call, including the CAPTCHA polling window
// and the manual-completion grace period.
func (s *Service) searchBudget() time.Duration {
	return s.cfg.ScraperTimeout + s.cfg.CaptchaPollLimit + s.cfg.CaptchaManualWait
}
