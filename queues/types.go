package queues

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	EnvelopeVersion      = "1.0"
	TypeScheduleRequest  = "schedule-request"
	TypeAllocationResult = "allocation-result"
	DateLayout           = "2006-01-02"
)

var ErrInvalidRequest = errors.New("invalid schedule request")

// FlightRecord is one already-extracted flight line of the daily schedule.
type FlightRecord struct {
	EventID    string `json:"eventId"`
	Takeoff    string `json:"takeoff"`
	Land       string `json:"land"`
	Instructor string `json:"instructor,omitempty"`
}

// TransitRecord is a window of transit-route traffic.
type TransitRecord struct {
	Takeoff string `json:"takeoff"`
	Land    string `json:"land"`
}

type ScheduleRequest struct {
	EnvelopeVersion string          `json:"envelopeVersion"`
	Type            string          `json:"type"`
	RequestID       string          `json:"requestId"`
	Date            string          `json:"date"`
	Flights         []FlightRecord  `json:"flights"`
	TransitRoutes   []TransitRecord `json:"transitRoutes,omitempty"`
}

// Validate checks the envelope. Individual flight records are checked later so a
// bad record skips one flight rather than the whole day.
func (r *ScheduleRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	if r.RequestID == "" {
		return fmt.Errorf("%w: missing requestId", ErrInvalidRequest)
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("%w: date %q: %v", ErrInvalidRequest, r.Date, err)
	}
	return nil
}

type AllocationStatus string

const (
	StatusSuccess AllocationStatus = "Success"
	StatusFailure AllocationStatus = "Failure"
)

// Assignment is a flight record with its allocation fields attached.
type Assignment struct {
	EventID      string `json:"eventId"`
	Prefix       string `json:"prefix"`
	Takeoff      string `json:"takeoff"`
	Land         string `json:"land"`
	Instructor   string `json:"instructor,omitempty"`
	FreqPair     string `json:"freqPair"`
	Chattermark  string `json:"chattermark"`
	AssignedArea string `json:"assignedArea"`
}

// SkippedFlight is a record excluded before allocation.
type SkippedFlight struct {
	EventID string `json:"eventId"`
	Reason  string `json:"reason"`
}

type AllocationResult struct {
	EnvelopeVersion string           `json:"envelopeVersion"`
	Type            string           `json:"type"`
	RequestID       string           `json:"requestId"`
	RunID           string           `json:"runId"`
	Date            string           `json:"date"`
	Status          AllocationStatus `json:"status"`
	Assignments     []Assignment     `json:"assignments"`
	Skipped         []SkippedFlight  `json:"skipped,omitempty"`
	ErrorMessage    *string          `json:"errorMessage,omitempty"`
}

type Subscriber interface {
	Start(ctx context.Context, handler func(context.Context, *ScheduleRequest) error) error
}

type Publisher interface {
	PublishResult(ctx context.Context, res *AllocationResult) error
}
