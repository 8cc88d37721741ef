package domain

import (
	"strings"
	"time"
)

type TicketStatus string

const (
	TicketValid           TicketStatus = "VALID"
	TicketInvalid         TicketStatus = "INVALID"
	TicketReserved        TicketStatus = "RESERVED"
	TicketDetailsRequired TicketStatus = "DETAILSREQUIRED"
	TicketBlank           TicketStatus = "BLANK"
)

// SellableStatusFilter is the upstream status filter matching IsSellable.
const SellableStatusFilter = "VALID,DETAILSREQUIRED"

// TicketRecord is one issued ticket as returned by the listing endpoint.
type TicketRecord struct {
	ID         string       `json:"_id"`
	TicketName string       `json:"ticketName"`
	HolderName string       `json:"name"`
	Email      string       `json:"email,omitempty"`
	Status     TicketStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	Price      float64      `json:"realPrice,omitempty"`
	Barcode    string       `json:"barcode,omitempty"`
	EventID    string       `json:"eventId"`
}

func (t TicketRecord) IsSellable() bool {
	switch TicketStatus(strings.ToUpper(string(t.Status))) {
	case TicketValid, TicketDetailsRequired:
		return true
	}
	return false
}

// TicketTypeDefinition is a declared inventory unit on an event.
type TicketTypeDefinition struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Capacity int     `json:"amount"`
	Price    float64 `json:"price"`
	Active   bool    `json:"active"`
}

type Shop struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Event is the upstream event metadata with its embedded ticket types.
type Event struct {
	ID          string                 `json:"_id"`
	Name        string                 `json:"name"`
	Start       string                 `json:"start"`
	End         string                 `json:"end"`
	SellStart   string                 `json:"sellStart,omitempty"`
	SellEnd     string                 `json:"sellEnd,omitempty"`
	Status      string                 `json:"status,omitempty"`
	TicketTypes []TicketTypeDefinition `json:"tickets"`
	Shops       []Shop                 `json:"underShops,omitempty"`
}

func (e Event) TicketType(id string) (TicketTypeDefinition, bool) {
	for _, tt := range e.TicketTypes {
		if tt.ID == id {
			return tt, true
		}
	}
	return TicketTypeDefinition{}, false
}
