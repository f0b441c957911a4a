package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Result status tags. Exactly one CaseResult is written per QueryLog once a
// search has run to completion.
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// QueryLog records one search attempt. Rows are append-only: created by the
// HTTP layer before the scrape runs, never updated or deleted.
type QueryLog struct {
	gorm.Model
	CaseType   string    `json:"case_type"`
	CaseNumber string    `json:"case_number"`
	FilingYear string    `json:"filing_year"`
	QueryTime  time.Time `json:"query_time"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent" gorm:"type:text"`

	Result *CaseResult `json:"result,omitempty" gorm:"foreignKey:QueryLogID"`
}

// CaseResult records the outcome of one QueryLog. Parties and orders are
// stored as JSON columns; dates keep both the raw display text and, when it
// parses, a typed value.
type CaseResult struct {
	gorm.Model
	QueryLogID uint   `json:"query_log_id" gorm:"uniqueIndex"`
	CaseType   string `json:"case_type"`
	CaseNumber string `json:"case_number"`
	FilingYear string `json:"filing_year"`

	Parties        datatypes.JSON `json:"parties"`
	Orders         datatypes.JSON `json:"orders"`
	FilingDateRaw  string         `json:"filing_date_raw"`
	FilingDate     *time.Time     `json:"filing_date"`
	NextHearingRaw string         `json:"next_hearing_raw"`
	NextHearing    *time.Time     `json:"next_hearing"`

	Status      string `json:"status"`
	RawResponse string `json:"raw_response" gorm:"type:text"`
}

func (QueryLog) TableName() string {
	return "query_logs"
}

func (CaseResult) TableName() string {
	return "case_results"
}
