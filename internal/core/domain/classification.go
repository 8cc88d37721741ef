package domain

import "strings"

type Classification string

const (
	Primary   Classification = "primary"
	Secondary Classification = "secondary"
)

// DefaultSecondaryMarkers identify add-on products that do not consume
// event capacity. A new add-on name introduced upstream classifies as
// primary until it is added here.
var DefaultSecondaryMarkers = []string{
	"ATHLETE 2",
	"SECOND PARTICIPANT",
	"TEAM MEMBER",
	"PHOTO PACKAGE",
}

// Classifier tags ticket types by case-insensitive substring markers.
type Classifier struct {
	markers []string
}

func NewClassifier(markers ...string) Classifier {
	if len(markers) == 0 {
		markers = DefaultSecondaryMarkers
	}
	upper := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		upper = append(upper, strings.ToUpper(m))
	}
	return Classifier{markers: upper}
}

func (c Classifier) IsSecondary(name string) bool {
	upper := strings.ToUpper(name)
	for _, m := range c.markers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}

func (c Classifier) Classify(name string) Classification {
	if c.IsSecondary(name) {
		return Secondary
	}
	return Primary
}

// FilterPrimary keeps the ticket types that count toward sellable capacity,
// preserving their declared order.
func (c Classifier) FilterPrimary(defs []TicketTypeDefinition) []TicketTypeDefinition {
	out := make([]TicketTypeDefinition, 0, len(defs))
	for _, d := range defs {
		if !c.IsSecondary(d.Name) {
			out = append(out, d)
		}
	}
	return out
}
