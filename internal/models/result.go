package models

import "time"

type SearchResultStatus string

const (
	StatusSuccess SearchResultStatus = "success"
	StatusPartial SearchResultStatus = "partial"
	StatusFailed  SearchResultStatus = "failed"
	StatusCached  SearchResultStatus = "cached"
	StatusSkipped SearchResultStatus = "skipped"
)

// SearchResult is the output of a single strategy run.
type SearchResult struct {
	Status          SearchResultStatus `json:"status"`
	Itineraries     []FlightItinerary  `json:"itineraries"`
	ExecutionTimeMs int64              `json:"execution_time_ms"`
	CacheHit        bool               `json:"cache_hit"`
	Disclaimers     []string           `json:"disclaimers,omitempty"`
	ErrorMessage    string             `json:"error_message,omitempty"`
}

func (r SearchResult) Success() bool {
	switch r.Status {
	case StatusSuccess, StatusPartial, StatusCached:
		return true
	}
	return false
}

// ErrorResponse is the JSON body returned for failed HTTP requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type SearchPhase string

const (
	PhaseOne SearchPhase = "phase_one"
	PhaseTwo SearchPhase = "phase_two"
)

type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// PhaseSummary records the outcome of one completed search phase.
type PhaseSummary struct {
	Phase           SearchPhase        `json:"phase"`
	Status          SearchResultStatus `json:"status"`
	ExecutionTimeMs int64              `json:"execution_time_ms"`
	ResultCount     int                `json:"result_count"`
	CacheHit        bool               `json:"cache_hit"`
	StartedAt       time.Time          `json:"started_at"`
	CompletedAt     time.Time          `json:"completed_at"`
}

// SearchSession is the persisted record a polling collaborator reads.
type SearchSession struct {
	SearchID    string                       `json:"search_id"`
	Phase       SearchPhase                  `json:"phase"`
	Status      SessionStatus                `json:"status"`
	Request     SearchRequest                `json:"request"`
	Phases      map[SearchPhase]PhaseSummary `json:"phases,omitempty"`
	Itineraries []FlightItinerary            `json:"itineraries,omitempty"`
	Disclaimers []string                     `json:"disclaimers,omitempty"`
	Error       string                       `json:"error,omitempty"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}
