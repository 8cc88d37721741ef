package services

import (
	"fmt"
	"sort"

	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
)

// Engine turns scraped ticket records and declared ticket types into
// availability figures.
//
// Sold counts join records to ticket types by display name, the only key a
// scraped record carries. Renaming a ticket type mid-sale splits its count
// across the old and new names.
type Engine struct {
	classifier domain.Classifier
	clock      clock.Clock
}

func NewEngine(classifier domain.Classifier, clk clock.Clock) *Engine {
	return &Engine{classifier: classifier, clock: clk}
}

func (e *Engine) Classifier() domain.Classifier {
	return e.classifier
}

// Reconcile computes event availability. It does not judge the scrape's
// completion rate; an incomplete scrape is flagged on the result.
func (e *Engine) Reconcile(event domain.Event, region string, scrape domain.ScrapeResult) domain.EventAvailability {
	sold := e.soldByName(scrape)
	primary := e.classifier.FilterPrimary(event.TicketTypes)

	types := make([]domain.TicketTypeAvailability, 0, len(primary))
	var totals domain.Totals
	for _, def := range primary {
		row := domain.NewTicketTypeAvailability(def, sold[def.Name])
		types = append(types, row)

		totals.Capacity += row.Capacity
		totals.Sold += row.Sold
		totals.Available += row.Available
	}
	percent := domain.PercentSold(totals.Sold, totals.Capacity)
	totals.PercentSold = domain.Round2(percent)
	totals.Status = domain.DetermineStatus(percent)

	availability := domain.EventAvailability{
		EventID:     event.ID,
		EventName:   event.Name,
		EventDate:   event.Start,
		Region:      region,
		TicketTypes: types,
		Totals:      totals,
		Scrape:      scrape.Summary(),
		LastUpdated: e.clock.Now(),
	}
	if availability.EventID == "" {
		availability.EventID = scrape.EventID
	}

	if scrape.Incomplete() {
		availability.Warnings = append(availability.Warnings, fmt.Sprintf(
			"incomplete scrape: fetched %d of %d tickets (%.1f%%), sold counts may be understated",
			scrape.TotalFetched, scrape.ExpectedTotal, scrape.CompletionRate))
	}
	if scrape.Aborted {
		availability.Warnings = append(availability.Warnings, "scrape aborted: "+scrape.AbortReason)
	}
	return availability
}

// TicketTypeCounts groups the primary sellable records by ticket name,
// highest count first.
func (e *Engine) TicketTypeCounts(scrape domain.ScrapeResult) []domain.TicketTypeCount {
	sold := e.soldByName(scrape)

	counts := make([]domain.TicketTypeCount, 0, len(sold))
	for name, n := range sold {
		if e.classifier.IsSecondary(name) {
			continue
		}
		counts = append(counts, domain.TicketTypeCount{Name: name, SoldCount: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].SoldCount != counts[j].SoldCount {
			return counts[i].SoldCount > counts[j].SoldCount
		}
		return counts[i].Name < counts[j].Name
	})
	return counts
}

func (e *Engine) soldByName(scrape domain.ScrapeResult) map[string]int {
	sold := make(map[string]int)
	for _, t := range scrape.Tickets {
		if !t.IsSellable() {
			continue
		}
		sold[t.TicketName]++
	}
	return sold
}
