package allocator

import (
	"context"
	"time"

	"airspace-allocator/metrics"
	"airspace-allocator/queues"
	"airspace-allocator/window"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Controller turns schedule requests into allocation results and publishes them.
// Each Handle call runs the engine on fresh state.
type Controller struct {
	publisher queues.Publisher
	engine    *Engine
	ledger    *Ledger
	newRunID  func() string
}

func NewController(p queues.Publisher, engine *Engine, ledger *Ledger) *Controller {
	return &Controller{publisher: p, engine: engine, ledger: ledger, newRunID: uuid.NewString}
}

// publishFailure builds and publishes a failure AllocationResult with metrics.
func (c *Controller) publishFailure(ctx context.Context, req *queues.ScheduleRequest, runID string, start time.Time, message string) error {
	status := queues.StatusFailure
	duration := time.Since(start)
	metrics.RunDuration.Observe(duration.Seconds())
	metrics.RunsTotal.WithLabelValues(string(status)).Inc()
	res := &queues.AllocationResult{
		EnvelopeVersion: queues.EnvelopeVersion,
		Type:            queues.TypeAllocationResult,
		RunID:           runID,
		Status:          status,
		Assignments:     []queues.Assignment{},
		ErrorMessage:    &message,
	}
	if req != nil {
		res.RequestID = req.RequestID
		res.Date = req.Date
	}
	c.record(res, Summary{}, duration)
	if err := c.publisher.PublishResult(ctx, res); err != nil {
		log.Error().Err(err).Str("requestId", res.RequestID).Msg("controller: failed to publish failure result")
		return err
	}
	return nil
}

func (c *Controller) Handle(ctx context.Context, req *queues.ScheduleRequest) error {
	start := time.Now()
	runID := c.newRunID()

	if err := req.Validate(); err != nil {
		log.Warn().Err(err).Str("runId", runID).Msg("controller: rejecting schedule request")
		return c.publishFailure(ctx, req, runID, start, err.Error())
	}
	log.Info().Str("requestId", req.RequestID).Str("date", req.Date).Str("runId", runID).
		Int("flights", len(req.Flights)).Int("transitRoutes", len(req.TransitRoutes)).
		Msg("controller: handling schedule request")

	flights, skipped := buildFlights(req.Flights)
	transit := buildTransit(req.TransitRoutes)

	out, err := c.engine.Run(flights, transit)
	if err != nil {
		log.Error().Err(err).Str("requestId", req.RequestID).Msg("controller: allocation run rejected input")
		return c.publishFailure(ctx, req, runID, start, err.Error())
	}

	assignments := make([]queues.Assignment, 0, len(out.Flights))
	for _, f := range out.Flights {
		assignments = append(assignments, queues.Assignment{
			EventID:      f.EventID,
			Prefix:       f.Prefix,
			Takeoff:      f.Window.Start.String(),
			Land:         f.Window.End.String(),
			Instructor:   f.Instructor,
			FreqPair:     f.FreqPair,
			Chattermark:  f.Chattermark,
			AssignedArea: string(f.AssignedArea),
		})
	}

	status := queues.StatusSuccess
	duration := time.Since(start)
	metrics.RunDuration.Observe(duration.Seconds())
	metrics.RunsTotal.WithLabelValues(string(status)).Inc()
	observeSummary(out.Summary)

	res := &queues.AllocationResult{
		EnvelopeVersion: queues.EnvelopeVersion,
		Type:            queues.TypeAllocationResult,
		RequestID:       req.RequestID,
		RunID:           runID,
		Date:            req.Date,
		Status:          status,
		Assignments:     assignments,
		Skipped:         skipped,
	}
	c.record(res, out.Summary, duration)
	if err := c.publisher.PublishResult(ctx, res); err != nil {
		log.Error().Err(err).Str("requestId", req.RequestID).Dur("duration", duration).Msg("controller: failed to publish result")
		return err
	}
	log.Info().Str("requestId", req.RequestID).Str("runId", runID).Str("status", string(status)).
		Dur("duration", duration).
		Int("flights", out.Summary.Flights).
		Int("skipped", len(skipped)).
		Int("freqUnassigned", out.Summary.FrequencyUnassigned).
		Int("areaUnassigned", out.Summary.AreaUnassigned).
		Msg("controller: allocation complete")
	return nil
}

func (c *Controller) record(res *queues.AllocationResult, sum Summary, d time.Duration) {
	if c.ledger == nil {
		return
	}
	c.ledger.Record(LedgerEntry{
		RunID:      res.RunID,
		RequestID:  res.RequestID,
		Date:       res.Date,
		Status:     res.Status,
		Summary:    sum,
		Skipped:    len(res.Skipped),
		FinishedAt: time.Now().UTC(),
		Duration:   d,
	})
}

// buildFlights drops records whose times cannot form a window; they are
// reported back as skipped instead of failing the run.
func buildFlights(records []queues.FlightRecord) ([]*FlightEvent, []queues.SkippedFlight) {
	flights := make([]*FlightEvent, 0, len(records))
	var skipped []queues.SkippedFlight
	for _, r := range records {
		f, err := NewFlightEvent(r.EventID, r.Takeoff, r.Land, r.Instructor)
		if err != nil {
			log.Warn().Err(err).Str("eventId", r.EventID).Str("takeoff", r.Takeoff).Str("land", r.Land).Msg("controller: skipping flight")
			metrics.SkippedFlights.Inc()
			skipped = append(skipped, queues.SkippedFlight{EventID: r.EventID, Reason: err.Error()})
			continue
		}
		flights = append(flights, f)
	}
	return flights, skipped
}

func buildTransit(records []queues.TransitRecord) []window.Window {
	out := make([]window.Window, 0, len(records))
	for _, r := range records {
		w, err := window.Parse(r.Takeoff, r.Land)
		if err != nil {
			log.Warn().Err(err).Str("takeoff", r.Takeoff).Str("land", r.Land).Msg("controller: skipping transit route")
			continue
		}
		out = append(out, w)
	}
	return out
}

func observeSummary(s Summary) {
	metrics.FlightOutcomes.WithLabelValues("frequency", "assigned").Add(float64(s.FrequencyAssigned))
	metrics.FlightOutcomes.WithLabelValues("frequency", "unassigned").Add(float64(s.FrequencyUnassigned))
	assigned := 0
	for _, n := range s.AreaAssigned {
		assigned += n
	}
	metrics.FlightOutcomes.WithLabelValues("airspace", "assigned").Add(float64(assigned))
	metrics.FlightOutcomes.WithLabelValues("airspace", "fallback").Add(float64(s.AreaFallback))
	metrics.FlightOutcomes.WithLabelValues("airspace", "unassigned").Add(float64(s.AreaUnassigned))
	metrics.FlightOutcomes.WithLabelValues("airspace", "unknown_prefix").Add(float64(s.UnknownPrefix))
}
