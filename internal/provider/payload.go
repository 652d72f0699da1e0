package provider

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexFloat decodes an amount that the API returns either as a JSON number or
// as a quoted decimal string. Valid is false for null and empty values.
type FlexFloat struct {
	Value float64
	Valid bool
}

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		f.Valid = false
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.Value = v
	f.Valid = true
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

type RawPrice struct {
	Amount FlexFloat `json:"amount"`
}

type RawCarrier struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type RawCity struct {
	Name string `json:"name"`
}

type RawCountry struct {
	Name string `json:"name"`
}

type RawStation struct {
	Name     string  `json:"name"`
	Code     string  `json:"code"`
	Terminal *string `json:"terminal"`
	City     RawCity `json:"city"`
}

type RawEndpoint struct {
	LocalTime  string     `json:"localTime"`
	UTCTimeISO string     `json:"utcTimeIso"`
	Station    RawStation `json:"station"`
}

type RawHiddenDestination struct {
	Code    string     `json:"code"`
	Name    string     `json:"name"`
	City    RawCity    `json:"city"`
	Country RawCountry `json:"country"`
}

type RawSegment struct {
	Code              string                `json:"code"`
	Duration          int                   `json:"duration"`
	CabinClass        string                `json:"cabinClass"`
	Source            RawEndpoint           `json:"source"`
	Destination       RawEndpoint           `json:"destination"`
	HiddenDestination *RawHiddenDestination `json:"hiddenDestination"`
	Carrier           RawCarrier            `json:"carrier"`
	OperatingCarrier  RawCarrier            `json:"operatingCarrier"`
}

type RawLayover struct {
	Duration         int  `json:"duration"`
	IsBaggageRecheck bool `json:"isBaggageRecheck"`
}

type RawSectorSegment struct {
	Segment *RawSegment `json:"segment"`
	Layover *RawLayover `json:"layover"`
}

type RawSector struct {
	Duration       int                `json:"duration"`
	SectorSegments []RawSectorSegment `json:"sectorSegments"`
}

type RawTravelHack struct {
	IsTrueHiddenCity     bool `json:"isTrueHiddenCity"`
	IsVirtualInterlining bool `json:"isVirtualInterlining"`
	IsThrowawayTicket    bool `json:"isThrowawayTicket"`
}

type RawBookingOption struct {
	Token      string    `json:"token"`
	BookingURL string    `json:"bookingUrl"`
	Price      *RawPrice `json:"price"`
}

type RawBookingOptions struct {
	Edges []struct {
		Node RawBookingOption `json:"node"`
	} `json:"edges"`
}

type RawProviderInfo struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// RawItinerary is a single result from either the one-way or return query.
// One-way results populate Sector; return results populate Outbound/Inbound.
type RawItinerary struct {
	ID             string             `json:"id"`
	ShareID        string             `json:"shareId"`
	BookingToken   string             `json:"bookingToken"`
	Price          *RawPrice          `json:"price"`
	PriceEur       *RawPrice          `json:"priceEur"`
	Provider       *RawProviderInfo   `json:"provider"`
	Duration       int                `json:"duration"`
	PnrCount       int                `json:"pnrCount"`
	TravelHack     *RawTravelHack     `json:"travelHack"`
	BookingOptions *RawBookingOptions `json:"bookingOptions"`
	Sector         *RawSector         `json:"sector"`
	Outbound       *RawSector         `json:"outbound"`
	Inbound        *RawSector         `json:"inbound"`
}

// SegmentCount counts flight segments across all sectors without parsing the
// full itinerary. Used for cheap direct-flight shape checks on raw results.
func (r *RawItinerary) SegmentCount() int {
	n := 0
	if r.Sector != nil {
		n += len(r.Sector.SectorSegments)
	}
	if r.Outbound != nil {
		n += len(r.Outbound.SectorSegments)
	}
	if r.Inbound != nil {
		n += len(r.Inbound.SectorSegments)
	}
	return n
}

type rawServer struct {
	RequestID   string `json:"requestId"`
	ServerToken string `json:"serverToken"`
}

type rawMetadata struct {
	ItinerariesCount int  `json:"itinerariesCount"`
	HasMorePending   bool `json:"hasMorePending"`
}

// rawResultContainer is the union payload under onewayItineraries or
// returnItineraries: either an AppError (Error set) or an Itineraries page.
type rawResultContainer struct {
	Typename    string         `json:"__typename"`
	Error       string         `json:"error"`
	Server      rawServer      `json:"server"`
	Metadata    rawMetadata    `json:"metadata"`
	Itineraries []RawItinerary `json:"itineraries"`
}
