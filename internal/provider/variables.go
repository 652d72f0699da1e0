package provider

import (
	"strings"

	"github.com/aeroscout/fareengine/internal/airports"
	"github.com/aeroscout/fareengine/internal/models"
)

type StationsInput struct {
	IDs []string `json:"ids"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ItineraryInput struct {
	Source                StationsInput `json:"source"`
	Destination           StationsInput `json:"destination"`
	OutboundDepartureDate DateRange     `json:"outboundDepartureDate"`
	InboundDepartureDate  *DateRange    `json:"inboundDepartureDate,omitempty"`
}

type PassengersInput struct {
	Adults         int   `json:"adults"`
	Children       int   `json:"children"`
	Infants        int   `json:"infants"`
	AdultsHoldBags []int `json:"adultsHoldBags"`
	AdultsHandBags []int `json:"adultsHandBags"`
}

type CabinClassInput struct {
	CabinClass        string `json:"cabinClass"`
	ApplyMixedClasses bool   `json:"applyMixedClasses"`
}

type SearchInput struct {
	Itinerary  ItineraryInput  `json:"itinerary"`
	Passengers PassengersInput `json:"passengers"`
	CabinClass CabinClassInput `json:"cabinClass"`
}

type StopoverInput struct {
	Locations  []string `json:"locations"`
	NightsFrom int      `json:"nightsFrom"`
	NightsTo   int      `json:"nightsTo"`
}

type FilterInput struct {
	AllowDifferentStationConnection bool            `json:"allowDifferentStationConnection"`
	EnableSelfTransfer              bool            `json:"enableSelfTransfer"`
	EnableThrowAwayTicketing        bool            `json:"enableThrowAwayTicketing"`
	EnableTrueHiddenCity            bool            `json:"enableTrueHiddenCity"`
	TransportTypes                  []string        `json:"transportTypes"`
	ContentProviders                []string        `json:"contentProviders"`
	Limit                           int             `json:"limit"`
	MaxStopsCount                   *int            `json:"maxStopsCount,omitempty"`
	Stopovers                       []StopoverInput `json:"stopovers,omitempty"`
	AllowReturnFromDifferentCity    *bool           `json:"allowReturnFromDifferentCity,omitempty"`
	AllowChangeInboundDestination   *bool           `json:"allowChangeInboundDestination,omitempty"`
	AllowChangeInboundSource        *bool           `json:"allowChangeInboundSource,omitempty"`
}

type OptionsInput struct {
	SortBy        string  `json:"sortBy"`
	Currency      string  `json:"currency"`
	Locale        string  `json:"locale"`
	Partner       string  `json:"partner"`
	PartnerMarket string  `json:"partnerMarket"`
	StoreSearch   bool    `json:"storeSearch"`
	ServerToken   *string `json:"serverToken"`
}

// Variables is the GraphQL variables object shared by both query documents.
type Variables struct {
	Search  SearchInput  `json:"search"`
	Filter  FilterInput  `json:"filter"`
	Options OptionsInput `json:"options"`
}

// VariableOption adjusts the base variables for a particular sub-search.
type VariableOption func(*Variables)

// WithMaxStops constrains the result shape, 0 meaning nonstop only.
func WithMaxStops(n int) VariableOption {
	return func(v *Variables) {
		stops := n
		v.Filter.MaxStopsCount = &stops
	}
}

func WithSelfTransfer(enabled bool) VariableOption {
	return func(v *Variables) {
		v.Filter.EnableSelfTransfer = enabled
	}
}

// WithStopover forces the itinerary through a transit station with no
// overnight stay.
func WithStopover(iata string) VariableOption {
	return func(v *Variables) {
		v.Filter.Stopovers = append(v.Filter.Stopovers, StopoverInput{
			Locations: []string{stationID(iata)},
		})
	}
}

// WithOneWay restricts the query to the outbound leg, dropping the inbound
// date window and return-trip filter flags a round-trip request carries.
func WithOneWay() VariableOption {
	return func(v *Variables) {
		v.Search.Itinerary.InboundDepartureDate = nil
		v.Filter.AllowReturnFromDifferentCity = nil
		v.Filter.AllowChangeInboundDestination = nil
		v.Filter.AllowChangeInboundSource = nil
	}
}

func WithDestination(iata string) VariableOption {
	return func(v *Variables) {
		v.Search.Itinerary.Destination = StationsInput{IDs: []string{stationID(iata)}}
	}
}

func stationID(iata string) string {
	return "Station:airport:" + airports.Normalize(iata)
}

func dateWindow(date string) DateRange {
	return DateRange{
		Start: date + "T00:00:00",
		End:   date + "T23:59:59",
	}
}

// BuildVariables translates a validated search request into the provider's
// variables shape. The request must already carry its defaults.
func BuildVariables(req *models.SearchRequest, opts ...VariableOption) Variables {
	itinerary := ItineraryInput{
		Source:                StationsInput{IDs: []string{stationID(req.Origin)}},
		Destination:           StationsInput{IDs: []string{stationID(req.Destination)}},
		OutboundDepartureDate: dateWindow(req.DepartureDate),
	}
	if !req.IsOneWay() {
		window := dateWindow(*req.ReturnDate)
		itinerary.InboundDepartureDate = &window
	}

	vars := Variables{
		Search: SearchInput{
			Itinerary: itinerary,
			Passengers: PassengersInput{
				Adults:         req.Adults,
				AdultsHoldBags: []int{req.HoldBags},
				AdultsHandBags: []int{req.HandBags},
			},
			CabinClass: CabinClassInput{
				CabinClass:        strings.ToUpper(req.CabinClass),
				ApplyMixedClasses: false,
			},
		},
		Filter: FilterInput{
			AllowDifferentStationConnection: true,
			EnableSelfTransfer:              true,
			EnableThrowAwayTicketing:        true,
			EnableTrueHiddenCity:            true,
			TransportTypes:                  []string{"FLIGHT"},
			ContentProviders:                []string{"KIWI"},
			Limit:                           30,
		},
		Options: OptionsInput{
			SortBy:        "PRICE",
			Currency:      strings.ToLower(req.Currency),
			Locale:        strings.ToLower(req.Locale),
			Partner:       "skypicker",
			PartnerMarket: strings.ToLower(req.Market),
			StoreSearch:   false,
		},
	}

	if !req.IsOneWay() {
		yes := true
		vars.Filter.AllowReturnFromDifferentCity = &yes
		vars.Filter.AllowChangeInboundDestination = &yes
		vars.Filter.AllowChangeInboundSource = &yes
	}

	for _, opt := range opts {
		opt(&vars)
	}
	return vars
}
