package dedup

import (
	"sort"
	"strings"
	"time"

	"github.com/aeroscout/fareengine/internal/models"
)

// Fingerprint identifies the physical trip independently of which sub-search
// produced it: the exact flights at their exact UTC times. Provider result ids
// differ between search sessions for the same trip, so they are not used.
func Fingerprint(it *models.FlightItinerary) string {
	var b strings.Builder
	for _, seg := range it.Segments() {
		b.WriteString(seg.Departure.Airport)
		b.WriteByte('-')
		b.WriteString(seg.Arrival.Airport)
		b.WriteByte('|')
		b.WriteString(seg.FlightNumber)
		b.WriteByte('@')
		b.WriteString(seg.Departure.UTCTime.UTC().Format(time.RFC3339))
		b.WriteByte(';')
	}
	return b.String()
}

// Merge combines itinerary lists, collapsing duplicates by fingerprint. The
// cheaper copy wins; on a price tie the copy with a booking token wins.
func Merge(lists ...[]*models.FlightItinerary) []*models.FlightItinerary {
	byTrip := make(map[string]*models.FlightItinerary)
	var order []string

	for _, list := range lists {
		for _, it := range list {
			key := Fingerprint(it)
			existing, ok := byTrip[key]
			if !ok {
				byTrip[key] = it
				order = append(order, key)
				continue
			}
			if better(it, existing) {
				byTrip[key] = it
			}
		}
	}

	out := make([]*models.FlightItinerary, 0, len(order))
	for _, key := range order {
		out = append(out, byTrip[key])
	}
	return out
}

func better(candidate, existing *models.FlightItinerary) bool {
	if candidate.Price.Amount != existing.Price.Amount {
		return candidate.Price.Amount < existing.Price.Amount
	}
	return candidate.BookingToken != "" && existing.BookingToken == ""
}

// ScoreQuality rates an itinerary from 0 to 100. Risky constructions lose
// points: hidden-city exits, throwaway tickets, substitute-destination
// offers, self-transfers, and airport changes during connections.
func ScoreQuality(it *models.FlightItinerary) float64 {
	score := 100.0
	if it.HiddenCity {
		score -= 20
	}
	if it.ThrowawayDeal {
		score -= 25
	}
	if it.ProbeSuggestion && !it.HiddenCity && !it.ThrowawayDeal {
		// A substitute-destination offer still needs onward travel arranged.
		score -= 10
	}
	if it.SelfTransfer {
		score -= 10
	}
	for _, seg := range it.Segments() {
		if seg.RequiresAirportChange {
			score -= 5
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// RiskFactors lists the human-readable risks behind a quality score.
func RiskFactors(it *models.FlightItinerary) []string {
	var risks []string
	if it.HiddenCity {
		risks = append(risks, "hidden-city itinerary: exiting at a layover may violate airline terms")
	}
	if it.ThrowawayDeal {
		risks = append(risks, "throwaway ticket: the final leg is not meant to be flown")
	}
	if it.SelfTransfer {
		risks = append(risks, "self-transfer: separate tickets, bags must be re-checked")
	}
	for _, seg := range it.Segments() {
		if seg.RequiresAirportChange {
			risks = append(risks, "airport change required during a connection")
			break
		}
	}
	return risks
}

// Sort orders itineraries in place. Unknown modes fall back to price.
func Sort(itins []*models.FlightItinerary, mode string) {
	less := byPrice
	switch mode {
	case "duration":
		less = byDuration
	case "departure":
		less = byDeparture
	case "quality":
		less = byQuality
	}
	sort.SliceStable(itins, func(i, j int) bool {
		return less(itins[i], itins[j])
	})
}

func byPrice(a, b *models.FlightItinerary) bool {
	return a.Price.Amount < b.Price.Amount
}

func byDuration(a, b *models.FlightItinerary) bool {
	return a.TotalDurationMinutes < b.TotalDurationMinutes
}

func byDeparture(a, b *models.FlightItinerary) bool {
	if len(a.OutboundSegments) == 0 || len(b.OutboundSegments) == 0 {
		return len(a.OutboundSegments) > 0
	}
	return a.OutboundSegments[0].Departure.UTCTime.Before(b.OutboundSegments[0].Departure.UTCTime)
}

func byQuality(a, b *models.FlightItinerary) bool {
	qa, qb := a.QualityScore, b.QualityScore
	if qa == qb {
		return a.Price.Amount < b.Price.Amount
	}
	return qa > qb
}
