package domain

// ScrapeStatus is the outcome of one scrape call. Each terminal condition has
// its own value so an operator can tell which stage failed.
type ScrapeStatus string

const (
	StatusSuccess         ScrapeStatus = "success"
	StatusDuplicate       ScrapeStatus = "duplicate"
	StatusFailedScrape    ScrapeStatus = "failed_scrape"
	StatusFailedSave      ScrapeStatus = "failed_save"
	StatusFailedJSON      ScrapeStatus = "failed_json"
	StatusUnsupportedSite ScrapeStatus = "unsupported_site"
)

// Message returns an operator-facing description of the status
func (s ScrapeStatus) Message() string {
	switch s {
	case StatusSuccess:
		return "course scraped and saved"
	case StatusDuplicate:
		return "course was already scraped"
	case StatusFailedScrape:
		return "failed to scrape course data"
	case StatusFailedSave:
		return "failed to save course data"
	case StatusFailedJSON:
		return "failed to encode course data"
	case StatusUnsupportedSite:
		return "unsupported site"
	default:
		return string(s)
	}
}
