package models

import "time"

type SearchRequest struct {
	Origin            string  `json:"origin"`
	Destination       string  `json:"destination"`
	DepartureDate     string  `json:"departure_date"`
	ReturnDate        *string `json:"return_date,omitempty"`
	Adults            int     `json:"adults"`
	HoldBags          int     `json:"hold_bags"`
	HandBags          int     `json:"hand_bags"`
	CabinClass        string  `json:"cabin_class"`
	Currency          string  `json:"currency"`
	Locale            string  `json:"locale,omitempty"`
	Market            string  `json:"market,omitempty"`
	MaxResults        int     `json:"max_results,omitempty"`
	MaxPages          int     `json:"max_pages,omitempty"`
	IncludeHiddenCity bool    `json:"include_hidden_city"`
	EnableHubProbe    bool    `json:"enable_hub_probe"`
	MaxHubs           int     `json:"max_hubs,omitempty"`
	SortBy            string  `json:"sort_by,omitempty"`
}

func (r *SearchRequest) IsOneWay() bool {
	return r.ReturnDate == nil || *r.ReturnDate == ""
}

// Validate checks required fields and fills defaults in place.
func (r *SearchRequest) Validate() error {
	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if r.Destination == "" {
		return ErrMissingDestination
	}
	if r.Origin == r.Destination {
		return ErrSameOriginDestination
	}
	if r.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	dep, err := time.Parse("2006-01-02", r.DepartureDate)
	if err != nil {
		return ErrInvalidDate
	}
	if !r.IsOneWay() {
		ret, err := time.Parse("2006-01-02", *r.ReturnDate)
		if err != nil {
			return ErrInvalidDate
		}
		if ret.Before(dep) {
			return ErrReturnBeforeDeparture
		}
	}
	if r.Adults <= 0 {
		r.Adults = 1
	}
	if r.HandBags <= 0 {
		r.HandBags = 1
	}
	if r.CabinClass == "" {
		r.CabinClass = "ECONOMY"
	}
	if r.Currency == "" {
		r.Currency = "CNY"
	}
	if r.Locale == "" {
		r.Locale = "en"
	}
	if r.Market == "" {
		r.Market = "cn"
	}
	if r.MaxResults <= 0 {
		r.MaxResults = 30
	}
	if r.MaxPages <= 0 {
		r.MaxPages = 2
	}
	if r.MaxHubs <= 0 || r.MaxHubs > 8 {
		r.MaxHubs = 5
	}
	if r.SortBy == "" {
		r.SortBy = "price"
	}
	return nil
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin         ValidationError = "origin is required"
	ErrMissingDestination    ValidationError = "destination is required"
	ErrSameOriginDestination ValidationError = "origin and destination must differ"
	ErrMissingDepartureDate  ValidationError = "departure_date is required"
	ErrInvalidDate           ValidationError = "dates must use YYYY-MM-DD format"
	ErrReturnBeforeDeparture ValidationError = "return_date is before departure_date"
)
