package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeroscout/fareengine/internal/models"
)

func itinerary(id string, price float64, flights ...string) *models.FlightItinerary {
	dep := time.Date(2026, 4, 1, 0, 30, 0, 0, time.UTC)
	segs := make([]models.FlightSegment, len(flights))
	for i, fn := range flights {
		segs[i] = models.FlightSegment{
			Departure:    models.Endpoint{Airport: "PEK", UTCTime: dep.Add(time.Duration(i) * 8 * time.Hour)},
			Arrival:      models.Endpoint{Airport: "LAX", UTCTime: dep.Add(time.Duration(i)*8*time.Hour + 6*time.Hour)},
			FlightNumber: fn,
		}
	}
	return &models.FlightItinerary{
		ID:               id,
		Price:            models.Price{Amount: price, Currency: "CNY"},
		OutboundSegments: segs,
	}
}

func TestFingerprintIgnoresProviderID(t *testing.T) {
	a := itinerary("id-1", 1000, "CA981")
	b := itinerary("id-2", 1200, "CA981")
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintDistinguishesFlights(t *testing.T) {
	a := itinerary("id-1", 1000, "CA981")
	b := itinerary("id-1", 1000, "CA982")
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))

	c := itinerary("id-1", 1000, "CA981")
	c.OutboundSegments[0].Departure.UTCTime = c.OutboundSegments[0].Departure.UTCTime.Add(time.Hour)
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestMergeKeepsCheaperDuplicate(t *testing.T) {
	expensive := itinerary("id-1", 1500, "CA981")
	cheap := itinerary("id-2", 1000, "CA981")

	merged := Merge([]*models.FlightItinerary{expensive}, []*models.FlightItinerary{cheap})
	require.Len(t, merged, 1)
	assert.Equal(t, "id-2", merged[0].ID)
}

func TestMergePriceTiePrefersBookingToken(t *testing.T) {
	without := itinerary("id-1", 1000, "CA981")
	with := itinerary("id-2", 1000, "CA981")
	with.BookingToken = "tok"

	merged := Merge([]*models.FlightItinerary{without, with})
	require.Len(t, merged, 1)
	assert.Equal(t, "id-2", merged[0].ID)

	// Order of arrival must not change the winner.
	merged = Merge([]*models.FlightItinerary{with, without})
	require.Len(t, merged, 1)
	assert.Equal(t, "id-2", merged[0].ID)
}

func TestMergeIsIdempotent(t *testing.T) {
	list := []*models.FlightItinerary{
		itinerary("id-1", 1000, "CA981"),
		itinerary("id-2", 2000, "CX882"),
	}
	once := Merge(list)
	twice := Merge(once)
	assert.Equal(t, once, twice)
}

func TestScoreQuality(t *testing.T) {
	clean := itinerary("id-1", 1000, "CA981")
	assert.Equal(t, 100.0, ScoreQuality(clean))

	hidden := itinerary("id-2", 1000, "CA981")
	hidden.HiddenCity = true
	assert.Equal(t, 80.0, ScoreQuality(hidden))

	substitute := itinerary("id-3", 1000, "CA981")
	substitute.ProbeSuggestion = true
	assert.Equal(t, 90.0, ScoreQuality(substitute))

	risky := itinerary("id-4", 1000, "CA981", "CX882")
	risky.HiddenCity = true
	risky.ThrowawayDeal = true
	risky.SelfTransfer = true
	risky.OutboundSegments[0].RequiresAirportChange = true
	assert.Equal(t, 40.0, ScoreQuality(risky))
}

func TestScoreQualityClampsAtZero(t *testing.T) {
	flights := make([]string, 12)
	for i := range flights {
		flights[i] = fmt.Sprintf("A%d", i+1)
	}
	it := itinerary("id-1", 1000, flights...)
	it.HiddenCity = true
	it.ThrowawayDeal = true
	it.SelfTransfer = true
	for i := range it.OutboundSegments[:11] {
		it.OutboundSegments[i].RequiresAirportChange = true
	}
	assert.Equal(t, 0.0, ScoreQuality(it))
}

func TestRiskFactors(t *testing.T) {
	it := itinerary("id-1", 1000, "CA981", "CX882")
	it.HiddenCity = true
	it.SelfTransfer = true
	it.OutboundSegments[0].RequiresAirportChange = true

	risks := RiskFactors(it)
	assert.Len(t, risks, 3)

	clean := itinerary("id-2", 1000, "CA981")
	assert.Empty(t, RiskFactors(clean))
}

func TestSortModes(t *testing.T) {
	cheapSlow := itinerary("cheap", 800, "CA981")
	cheapSlow.TotalDurationMinutes = 900
	fastPricey := itinerary("fast", 1500, "CX882")
	fastPricey.TotalDurationMinutes = 600
	fastPricey.OutboundSegments[0].Departure.UTCTime = cheapSlow.OutboundSegments[0].Departure.UTCTime.Add(-2 * time.Hour)

	list := []*models.FlightItinerary{fastPricey, cheapSlow}
	Sort(list, "price")
	assert.Equal(t, "cheap", list[0].ID)

	Sort(list, "duration")
	assert.Equal(t, "fast", list[0].ID)

	Sort(list, "departure")
	assert.Equal(t, "fast", list[0].ID)

	cheapSlow.QualityScore = 100
	fastPricey.QualityScore = 75
	Sort(list, "quality")
	assert.Equal(t, "cheap", list[0].ID)

	Sort(list, "unknown")
	assert.Equal(t, "cheap", list[0].ID)
}
