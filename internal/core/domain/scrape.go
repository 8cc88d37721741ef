package domain

import "time"

// CompletionThreshold is the minimum completion rate, in percent, for a
// scrape to be trusted.
const CompletionThreshold = 95.0

// ScrapeResult holds every ticket record fetched for one event. It is built
// once per scrape and never updated afterwards.
type ScrapeResult struct {
	EventID        string         `json:"eventId"`
	Tickets        []TicketRecord `json:"tickets"`
	TotalFetched   int            `json:"totalFetched"`
	ExpectedTotal  int            `json:"expectedTotal"`
	CompletionRate float64        `json:"completionRate"`
	ScrapedAt      time.Time      `json:"scrapedAt"`
	Aborted        bool           `json:"aborted"`
	AbortReason    string         `json:"abortReason,omitempty"`
}

func NewScrapeResult(eventID string, tickets []TicketRecord, expectedTotal int, scrapedAt time.Time) ScrapeResult {
	return ScrapeResult{
		EventID:        eventID,
		Tickets:        tickets,
		TotalFetched:   len(tickets),
		ExpectedTotal:  expectedTotal,
		CompletionRate: CompletionRate(len(tickets), expectedTotal),
		ScrapedAt:      scrapedAt,
	}
}

func CompletionRate(fetched, expected int) float64 {
	if expected <= 0 {
		return 0
	}
	return float64(fetched) / float64(expected) * 100
}

// Incomplete reports whether the scrape stopped early or fell below the
// completion threshold. An event whose first page reported zero tickets is
// complete.
func (r ScrapeResult) Incomplete() bool {
	if r.Aborted {
		return true
	}
	return r.ExpectedTotal > 0 && r.CompletionRate < CompletionThreshold
}

func (r ScrapeResult) Trustworthy() bool {
	return !r.Incomplete()
}

// Failed reports a fetch that produced nothing usable: it aborted before any
// record was accumulated.
func (r ScrapeResult) Failed() bool {
	return r.Aborted && r.TotalFetched == 0
}

type ScrapeSummary struct {
	TotalFetched   int       `json:"totalFetched"`
	ExpectedTotal  int       `json:"expectedTotal"`
	CompletionRate float64   `json:"completionRate"`
	Incomplete     bool      `json:"incomplete"`
	ScrapedAt      time.Time `json:"scrapedAt"`
}

func (r ScrapeResult) Summary() ScrapeSummary {
	return ScrapeSummary{
		TotalFetched:   r.TotalFetched,
		ExpectedTotal:  r.ExpectedTotal,
		CompletionRate: Round2(r.CompletionRate),
		Incomplete:     r.Incomplete(),
		ScrapedAt:      r.ScrapedAt,
	}
}
