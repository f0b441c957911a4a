package database

import (
	"gorm.io/gorm"
)

// createIndexes creates database indexes
func createIndexes(db *gorm.DB) error {
	// Index for query history lookups
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_query_logs_time
		ON query_logs(query_time)
	`).Error; err != nil {
		return err
	}

	// Index for result lookups by case identity
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_case_results_search
		ON case_results(case_type, case_number, filing_year)
	`).Error; err != nil {
		return err
	}

	return nil
}
