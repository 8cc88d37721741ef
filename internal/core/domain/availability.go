package domain

import (
	"math"
	"time"
)

type AvailabilityStatus string

const (
	StatusAvailable AvailabilityStatus = "available"
	StatusLimited   AvailabilityStatus = "limited"
	StatusSoldOut   AvailabilityStatus = "soldout"
)

const (
	soldOutPercent = 100.0
	limitedPercent = 80.0
)

func DetermineStatus(percentSold float64) AvailabilityStatus {
	switch {
	case percentSold >= soldOutPercent:
		return StatusSoldOut
	case percentSold >= limitedPercent:
		return StatusLimited
	default:
		return StatusAvailable
	}
}

func PercentSold(sold, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(sold) / float64(capacity) * 100
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type TicketTypeAvailability struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Capacity    int                `json:"capacity"`
	Sold        int                `json:"sold"`
	Available   int                `json:"available"`
	PercentSold float64            `json:"percentSold"`
	Status      AvailabilityStatus `json:"status"`
	Price       float64            `json:"price,omitempty"`
}

// NewTicketTypeAvailability derives available, percent and status from a
// capacity and sold count.
func NewTicketTypeAvailability(def TicketTypeDefinition, sold int) TicketTypeAvailability {
	percent := PercentSold(sold, def.Capacity)
	return TicketTypeAvailability{
		ID:          def.ID,
		Name:        def.Name,
		Capacity:    def.Capacity,
		Sold:        sold,
		Available:   max(0, def.Capacity-sold),
		PercentSold: Round2(percent),
		Status:      DetermineStatus(percent),
		Price:       def.Price,
	}
}

type Totals struct {
	Capacity    int                `json:"capacity"`
	Sold        int                `json:"sold"`
	Available   int                `json:"available"`
	PercentSold float64            `json:"percentSold"`
	Status      AvailabilityStatus `json:"status"`
}

type ShopAvailability struct {
	ShopID         string  `json:"shopId"`
	ShopName       string  `json:"shopName"`
	Sold           int     `json:"sold"`
	PercentOfTotal float64 `json:"percentOfTotal"`
}

type EventAvailability struct {
	EventID     string                   `json:"eventId"`
	EventName   string                   `json:"eventName"`
	EventDate   string                   `json:"eventDate"`
	Region      string                   `json:"region"`
	TicketTypes []TicketTypeAvailability `json:"ticketTypes"`
	Totals      Totals                   `json:"totals"`
	Scrape      ScrapeSummary            `json:"scrape"`
	Warnings    []string                 `json:"warnings,omitempty"`
	Shops       []ShopAvailability       `json:"shops,omitempty"`
	LastUpdated time.Time                `json:"lastUpdated"`
}

type TicketTypeCount struct {
	Name      string `json:"name"`
	SoldCount int    `json:"soldCount"`
}

type DashboardSummary struct {
	TotalEvents       int     `json:"totalEvents"`
	TotalCapacity     int     `json:"totalCapacity"`
	TotalSold         int     `json:"totalSold"`
	TotalAvailable    int     `json:"totalAvailable"`
	AvgPercentSold    float64 `json:"avgPercentSold"`
	EventsNearSoldOut int     `json:"eventsNearSoldOut"`
	EventsSoldOut     int     `json:"eventsSoldOut"`
}

type DashboardData struct {
	Events      []EventAvailability `json:"events"`
	Summary     DashboardSummary    `json:"summary"`
	Failed      []string            `json:"failed,omitempty"`
	LastRefresh time.Time           `json:"lastRefresh"`
}

func Summarize(events []EventAvailability) DashboardSummary {
	s := DashboardSummary{TotalEvents: len(events)}
	for _, ev := range events {
		s.TotalCapacity += ev.Totals.Capacity
		s.TotalSold += ev.Totals.Sold
		s.TotalAvailable += ev.Totals.Available
		switch ev.Totals.Status {
		case StatusSoldOut:
			s.EventsSoldOut++
		case StatusLimited:
			s.EventsNearSoldOut++
		}
	}
	s.AvgPercentSold = Round2(PercentSold(s.TotalSold, s.TotalCapacity))
	return s
}
