package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aeroscout/fareengine/internal/models"
	"github.com/aeroscout/fareengine/internal/provider"
	"github.com/aeroscout/fareengine/pkg/currency"
)

var (
	// ErrMissingPrice means the itinerary carries no usable amount in the
	// requested currency. Amounts are never converted from another currency.
	ErrMissingPrice = errors.New("itinerary has no price in requested currency")

	// ErrNoSegments means no valid flight segments could be extracted.
	ErrNoSegments = errors.New("itinerary has no parsable segments")
)

const bookingBaseURL = "https://www.kiwi.com/en/booking?token="
const shareBaseURL = "https://www.kiwi.com/share/"
const searchBaseURL = "https://www.kiwi.com/en/search/results/"

// Parse converts one raw provider itinerary into the domain model. Returns an
// error when the itinerary must be dropped; individual bad segments are
// skipped rather than failing the whole itinerary.
func Parse(raw *provider.RawItinerary, isOneWay bool, currencyCode string) (*models.FlightItinerary, error) {
	if raw.Price == nil || !raw.Price.Amount.Valid || raw.Price.Amount.Value <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingPrice, raw.ID)
	}

	var outbound, inbound []models.FlightSegment
	var outboundRecheck, inboundRecheck bool
	if isOneWay {
		if raw.Sector == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoSegments, raw.ID)
		}
		outbound, outboundRecheck = parseSegmentList(raw.Sector.SectorSegments)
	} else {
		if raw.Outbound == nil || raw.Inbound == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoSegments, raw.ID)
		}
		outbound, outboundRecheck = parseSegmentList(raw.Outbound.SectorSegments)
		inbound, inboundRecheck = parseSegmentList(raw.Inbound.SectorSegments)
		if len(inbound) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoSegments, raw.ID)
		}
	}
	if len(outbound) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSegments, raw.ID)
	}

	markAirportChanges(outbound)
	markAirportChanges(inbound)

	pnrCount := raw.PnrCount
	if pnrCount == 0 {
		pnrCount = 1
	}
	selfTransfer := pnrCount > 1 || outboundRecheck || inboundRecheck

	var hiddenCity, throwaway bool
	if raw.TravelHack != nil {
		hiddenCity = raw.TravelHack.IsTrueHiddenCity
		throwaway = raw.TravelHack.IsThrowawayTicket
	}
	// The provider occasionally annotates a segment with a hidden destination
	// while leaving isTrueHiddenCity unset. Trust the segment annotation.
	if !hiddenCity && hasHiddenDestination(outbound, inbound) {
		hiddenCity = true
	}

	bookingToken := raw.BookingToken
	if bookingToken == "" && raw.BookingOptions != nil && len(raw.BookingOptions.Edges) > 0 {
		bookingToken = raw.BookingOptions.Edges[0].Node.Token
	}

	itinerary := &models.FlightItinerary{
		ID: raw.ID,
		Price: models.Price{
			Amount:    raw.Price.Amount.Value,
			Currency:  strings.ToUpper(currencyCode),
			Formatted: currency.Format(raw.Price.Amount.Value, currencyCode),
		},
		BookingToken:         bookingToken,
		OutboundSegments:     outbound,
		InboundSegments:      inbound,
		TotalDurationMinutes: raw.Duration / 60,
		SelfTransfer:         selfTransfer,
		HiddenCity:           hiddenCity,
		ThrowawayDeal:        throwaway,
		DataSource:           "kiwi",
	}
	itinerary.DeepLink = deepLink(raw, bookingToken, outbound)
	return itinerary, nil
}

func parseSegmentList(sectorSegments []provider.RawSectorSegment) ([]models.FlightSegment, bool) {
	segments := make([]models.FlightSegment, 0, len(sectorSegments))
	foundRecheck := false

	for _, ss := range sectorSegments {
		if ss.Segment == nil {
			continue
		}
		seg := ss.Segment
		if seg.Source.Station.Code == "" || seg.Destination.Station.Code == "" || seg.Carrier.Code == "" {
			continue
		}

		operating := seg.OperatingCarrier
		if operating.Code == "" {
			operating = seg.Carrier
		}

		parsed := models.FlightSegment{
			Departure:        parseEndpoint(seg.Source),
			Arrival:          parseEndpoint(seg.Destination),
			Carrier:          models.Carrier{Code: seg.Carrier.Code, Name: seg.Carrier.Name},
			OperatingCarrier: models.Carrier{Code: operating.Code, Name: operating.Name},
			FlightNumber:     seg.Carrier.Code + seg.Code,
			CabinClass:       seg.CabinClass,
			DurationMinutes:  seg.Duration / 60,
		}
		if seg.HiddenDestination != nil && seg.HiddenDestination.Code != "" {
			parsed.HiddenDestination = &models.HiddenDestination{
				Airport: seg.HiddenDestination.Code,
				Name:    seg.HiddenDestination.Name,
				City:    seg.HiddenDestination.City.Name,
				Country: seg.HiddenDestination.Country.Name,
			}
		}
		if ss.Layover != nil {
			if ss.Layover.IsBaggageRecheck {
				foundRecheck = true
			}
			parsed.Layover = &models.Layover{
				DurationMinutes: ss.Layover.Duration / 60,
				BaggageRecheck:  ss.Layover.IsBaggageRecheck,
			}
		}
		segments = append(segments, parsed)
	}

	reconcileLayoverDurations(segments)
	return segments, foundRecheck
}

func parseEndpoint(raw provider.RawEndpoint) models.Endpoint {
	return models.Endpoint{
		Airport:     raw.Station.Code,
		AirportName: raw.Station.Name,
		City:        raw.Station.City.Name,
		Terminal:    raw.Station.Terminal,
		LocalTime:   parseTime(raw.LocalTime),
		UTCTime:     parseTime(raw.UTCTimeISO),
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// reconcileLayoverDurations cross-checks reported layovers against segment
// UTC timestamps. When a segment's arrival lands after the next departure the
// provider data is inconsistent, and the layover duration is set to -1 so
// consumers do not trust it.
func reconcileLayoverDurations(segments []models.FlightSegment) {
	for i := 0; i < len(segments)-1; i++ {
		cur := &segments[i]
		if cur.Layover == nil {
			continue
		}
		arr := cur.Arrival.UTCTime
		dep := segments[i+1].Departure.UTCTime
		if arr.IsZero() || dep.IsZero() {
			continue
		}
		if arr.After(dep) {
			cur.Layover.DurationMinutes = -1
		}
	}
}

func markAirportChanges(segments []models.FlightSegment) {
	for i := 0; i < len(segments)-1; i++ {
		segments[i].RequiresAirportChange = segments[i].Arrival.Airport != segments[i+1].Departure.Airport
	}
}

func hasHiddenDestination(outbound, inbound []models.FlightSegment) bool {
	for _, seg := range outbound {
		if seg.HiddenDestination != nil {
			return true
		}
	}
	for _, seg := range inbound {
		if seg.HiddenDestination != nil {
			return true
		}
	}
	return false
}

// deepLink picks the best booking URL available: an explicit booking option
// URL, then a booking-token URL, then a share link, then a plain search page.
func deepLink(raw *provider.RawItinerary, bookingToken string, outbound []models.FlightSegment) string {
	if raw.BookingOptions != nil {
		for _, edge := range raw.BookingOptions.Edges {
			if u := edge.Node.BookingURL; u != "" {
				if strings.HasPrefix(u, "/") {
					return "https://www.kiwi.com" + u
				}
				return u
			}
		}
	}
	if bookingToken != "" {
		return bookingBaseURL + bookingToken
	}
	if raw.ShareID != "" {
		return shareBaseURL + raw.ShareID
	}
	if len(outbound) > 0 {
		origin := outbound[0].Departure.Airport
		dest := outbound[len(outbound)-1].Arrival.Airport
		date := outbound[0].Departure.LocalTime.Format("2006-01-02")
		return searchBaseURL + origin + "-" + dest + "/" + date
	}
	return ""
}
