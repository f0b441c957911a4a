package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Party is one litigant entry from the parties block.
type Party struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Order is one order/judgment entry. URL is empty when the portal shows the
// order without a download link.
type Order struct {
	Date  string `json:"date"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// CaseDetails is the typed record extracted from a result page. Dates are
// kept as displayed text; parsing into time values happens at persistence.
type CaseDetails struct {
	Parties         []Party `json:"parties"`
	FilingDate      string  `json:"filing_date,omitempty"`
	NextHearingDate string  `json:"next_hearing_date,omitempty"`
	Orders          []Order `json:"orders"`
}

// Extract parses result-page markup into a CaseDetails record. It returns
// nil when the markup cannot be parsed at all. The parties, dates and orders
// regions are each optional: a missing region leaves its field empty and the
// rest still populate.
func Extract(markup string) *CaseDetails {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	details := &CaseDetails{}

	doc.Find("div.parties-info div.party").Each(func(_ int, s *goquery.Selection) {
		partyType := strings.TrimSpace(s.Find("span.party-type").Text())
		partyName := strings.TrimSpace(s.Find("span.party-name").Text())
		// Entries missing either field are skipped
		if partyType == "" || partyName == "" {
			return
		}
		details.Parties = append(details.Parties, Party{Type: partyType, Name: partyName})
	})

	dates := doc.Find("div.case-dates")
	details.FilingDate = strings.TrimSpace(dates.Find("span.filing-date").Text())
	details.NextHearingDate = strings.TrimSpace(dates.Find("span.next-hearing").Text())

	doc.Find("div.orders-section div.order-item").Each(func(_ int, s *goquery.Selection) {
		date := strings.TrimSpace(s.Find("span.order-date").Text())
		title := strings.TrimSpace(s.Find("span.order-title").Text())
		if date == "" || title == "" {
			return
		}
		url, _ := s.Find("a.order-link").Attr("href")
		details.Orders = append(details.Orders, Order{Date: date, Title: title, URL: url})
	})

	return details
}
