package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItinerary() FlightItinerary {
	terminal := "T2"
	return FlightItinerary{
		ID:           "itin-1",
		Price:        Price{Amount: 3456.78, Currency: "CNY", Formatted: "CNY 3,457"},
		BookingToken: "tok-abc",
		DeepLink:     "https://www.kiwi.com/en/booking?token=tok-abc",
		OutboundSegments: []FlightSegment{
			{
				Departure: Endpoint{
					Airport:     "CAN",
					AirportName: "Guangzhou Baiyun International",
					City:        "Guangzhou",
					Terminal:    &terminal,
					LocalTime:   time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
					UTCTime:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
				},
				Arrival: Endpoint{
					Airport:   "PEK",
					City:      "Beijing",
					LocalTime: time.Date(2026, 4, 1, 11, 0, 0, 0, time.UTC),
					UTCTime:   time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC),
				},
				Carrier:          Carrier{Code: "CA", Name: "Air China"},
				OperatingCarrier: Carrier{Code: "CA", Name: "Air China"},
				FlightNumber:     "CA1301",
				CabinClass:       "ECONOMY",
				DurationMinutes:  180,
				HiddenDestination: &HiddenDestination{
					Airport: "PVG",
					Name:    "Shanghai Pudong International",
					City:    "Shanghai",
					Country: "China",
				},
				Layover:               &Layover{DurationMinutes: -1, BaggageRecheck: true},
				RequiresAirportChange: true,
			},
			{
				Departure: Endpoint{
					Airport:   "PKX",
					LocalTime: time.Date(2026, 4, 1, 14, 0, 0, 0, time.UTC),
					UTCTime:   time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC),
				},
				Arrival: Endpoint{
					Airport:   "PVG",
					LocalTime: time.Date(2026, 4, 1, 16, 0, 0, 0, time.UTC),
					UTCTime:   time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
				},
				Carrier:          Carrier{Code: "MU", Name: "China Eastern"},
				OperatingCarrier: Carrier{Code: "MU", Name: "China Eastern"},
				FlightNumber:     "MU5102",
				CabinClass:       "ECONOMY",
				DurationMinutes:  120,
			},
		},
		TotalDurationMinutes: 480,
		SelfTransfer:         true,
		HiddenCity:           true,
		ThrowawayDeal:        true,
		ProbeSuggestion:      true,
		ProbeHub:             "PEK",
		ProbeDisclaimer:      "Exit at the layover; later segments get cancelled.",
		QualityScore:         40,
		RiskFactors:          []string{"hidden-city itinerary: exiting at a layover may violate airline terms"},
		DataSource:           "kiwi",
	}
}

func TestFlightItineraryJSONRoundTrip(t *testing.T) {
	original := sampleItinerary()

	data, err := json.Marshal(&original)
	require.NoError(t, err)

	var decoded FlightItinerary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestSearchSessionJSONRoundTrip(t *testing.T) {
	ret := "2026-04-10"
	original := SearchSession{
		SearchID: "s-1",
		Phase:    PhaseTwo,
		Status:   SessionCompleted,
		Request: SearchRequest{
			Origin:            "CAN",
			Destination:       "PEK",
			DepartureDate:     "2026-04-01",
			ReturnDate:        &ret,
			Adults:            2,
			HandBags:          1,
			CabinClass:        "ECONOMY",
			Currency:          "CNY",
			Locale:            "en",
			Market:            "cn",
			MaxResults:        30,
			MaxPages:          2,
			IncludeHiddenCity: true,
			EnableHubProbe:    true,
			MaxHubs:           5,
			SortBy:            "price",
		},
		Phases: map[SearchPhase]PhaseSummary{
			PhaseOne: {
				Phase:           PhaseOne,
				Status:          StatusSuccess,
				ExecutionTimeMs: 1200,
				ResultCount:     2,
				StartedAt:       time.Date(2026, 3, 30, 10, 0, 0, 0, time.UTC),
				CompletedAt:     time.Date(2026, 3, 30, 10, 0, 1, 200000000, time.UTC),
			},
		},
		Itineraries: []FlightItinerary{sampleItinerary()},
		Disclaimers: []string{"Throwaway ticket deals included."},
		CreatedAt:   time.Date(2026, 3, 30, 10, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 3, 30, 10, 0, 2, 0, time.UTC),
	}

	data, err := json.Marshal(&original)
	require.NoError(t, err)

	var decoded SearchSession
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}
