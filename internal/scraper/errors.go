package scraper

import "errors"

// Terminal outcomes of a scrape attempt. Every step degrades to one of these
// instead of propagating raw browser or network errors; the search service
// maps them onto the persisted status tag.
var (
	// ErrLaunch means the browser could not be started or connected to.
	ErrLaunch = errors.New("browser launch failed")

	// ErrNavigationTimeout means an expected page element never appeared
	// within its wait bound.
	ErrNavigationTimeout = errors.New("timed out waiting for page element")

	// ErrCaptchaUnresolved means no automated solution was obtained and no
	// manual completion was observed within the grace period.
	ErrCaptchaUnresolved = errors.New("captcha could not be resolved")

	// ErrExtraction means the result markup did not yield a case record.
	ErrExtraction = errors.New("case details could not be extracted")

	// ErrNotFound means the portal affirmatively reported no matching case.
	ErrNotFound = errors.New("no matching case found")
)
