package models

import "time"

type Carrier struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Endpoint struct {
	Airport     string    `json:"airport"`
	AirportName string    `json:"airport_name,omitempty"`
	City        string    `json:"city,omitempty"`
	Terminal    *string   `json:"terminal,omitempty"`
	LocalTime   time.Time `json:"local_time"`
	UTCTime     time.Time `json:"utc_time"`
}

// HiddenDestination is the station a segment would continue toward beyond
// the traveler's planned exit. Present only on provider-annotated segments.
type HiddenDestination struct {
	Airport string `json:"airport"`
	Name    string `json:"name,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// Layover describes the connection following a segment. DurationMinutes is -1
// when the provider timestamps are inconsistent (arrival after next departure).
type Layover struct {
	DurationMinutes int  `json:"duration_minutes"`
	BaggageRecheck  bool `json:"baggage_recheck"`
}

type FlightSegment struct {
	Departure             Endpoint           `json:"departure"`
	Arrival               Endpoint           `json:"arrival"`
	Carrier               Carrier            `json:"carrier"`
	OperatingCarrier      Carrier            `json:"operating_carrier"`
	FlightNumber          string             `json:"flight_number"`
	CabinClass            string             `json:"cabin_class"`
	DurationMinutes       int                `json:"duration_minutes"`
	HiddenDestination     *HiddenDestination `json:"hidden_destination,omitempty"`
	Layover               *Layover           `json:"layover,omitempty"`
	RequiresAirportChange bool               `json:"requires_airport_change,omitempty"`
}

type Price struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
}

type FlightItinerary struct {
	ID                   string          `json:"id"`
	Price                Price           `json:"price"`
	BookingToken         string          `json:"booking_token,omitempty"`
	DeepLink             string          `json:"deep_link,omitempty"`
	OutboundSegments     []FlightSegment `json:"outbound_segments"`
	InboundSegments      []FlightSegment `json:"inbound_segments,omitempty"`
	TotalDurationMinutes int             `json:"total_duration_minutes"`
	SelfTransfer         bool            `json:"is_self_transfer"`
	HiddenCity           bool            `json:"is_hidden_city"`
	ThrowawayDeal        bool            `json:"is_throwaway_deal"`
	ProbeSuggestion      bool            `json:"is_probe_suggestion,omitempty"`
	ProbeHub             string          `json:"probe_hub,omitempty"`
	ProbeDisclaimer      string          `json:"probe_disclaimer,omitempty"`
	QualityScore         float64         `json:"quality_score,omitempty"`
	RiskFactors          []string        `json:"risk_factors,omitempty"`
	DataSource           string          `json:"data_source,omitempty"`
}

// Segments returns outbound followed by inbound segments.
func (f *FlightItinerary) Segments() []FlightSegment {
	if len(f.InboundSegments) == 0 {
		return f.OutboundSegments
	}
	segs := make([]FlightSegment, 0, len(f.OutboundSegments)+len(f.InboundSegments))
	segs = append(segs, f.OutboundSegments...)
	segs = append(segs, f.InboundSegments...)
	return segs
}

func (f *FlightItinerary) IsRoundTrip() bool {
	return len(f.InboundSegments) > 0
}

// FinalArrival is the ticketed final destination airport code.
func (f *FlightItinerary) FinalArrival() string {
	segs := f.OutboundSegments
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1].Arrival.Airport
}
