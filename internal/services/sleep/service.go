package sleep

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/models"
)

// Default lookback windows.
const (
	DefaultLookback        = 24 * time.Hour
	DefaultHistoryLookback = 72 * time.Hour
)

// HistoricalRecordSource reads stored records for a time window.
type HistoricalRecordSource interface {
	Query(ctx context.Context, recordType models.RecordType, window models.Window) ([]models.RawRecord, error)
}

// Service reads sleep sessions from a record source and summarizes them.
type Service struct {
	source          HistoricalRecordSource
	now             func() time.Time
	lookback        time.Duration
	historyLookback time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLookback sets the window searched for last night's sleep.
func WithLookback(d time.Duration) Option {
	return func(s *Service) { s.lookback = d }
}

// WithHistoryLookback sets the window used for history browsing.
func WithHistoryLookback(d time.Duration) Option {
	return func(s *Service) { s.historyLookback = d }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a sleep service over source.
func New(source HistoricalRecordSource, opts ...Option) *Service {
	s := &Service{
		source:          source,
		now:             time.Now,
		lookback:        DefaultLookback,
		historyLookback: DefaultHistoryLookback,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LastNight summarizes the most recently ended sleep session inside the live
// lookback window. It returns nil without error when no session exists.
func (s *Service) LastNight(ctx context.Context) (*models.SleepReport, error) {
	records, err := s.query(ctx, s.lookback)
	if err != nil {
		return nil, err
	}

	latest := SelectLatest(records)
	if latest == nil {
		logger.Debug("no sleep session in lookback window", "lookback", s.lookback.String())
		return nil, nil
	}

	report := s.report(*latest)
	return &report, nil
}

// Sessions summarizes every sleep session in the history window, newest
// first.
func (s *Service) Sessions(ctx context.Context) ([]models.SleepReport, error) {
	return s.SessionsWithin(ctx, s.historyLookback)
}

// SessionsWithin summarizes every sleep session ending inside the given
// lookback, newest first.
func (s *Service) SessionsWithin(ctx context.Context, lookback time.Duration) ([]models.SleepReport, error) {
	records, err := s.query(ctx, lookback)
	if err != nil {
		return nil, err
	}

	reports := make([]models.SleepReport, 0, len(records))
	for _, rec := range records {
		if rec.Type != models.RecordTypeSleepSession {
			continue
		}
		reports = append(reports, s.report(rec))
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].End.After(reports[j].End)
	})
	return reports, nil
}

func (s *Service) query(ctx context.Context, lookback time.Duration) ([]models.RawRecord, error) {
	window := models.LookbackWindow(s.now(), lookback)
	records, err := s.source.Query(ctx, models.RecordTypeSleepSession, window)
	if err != nil {
		return nil, fmt.Errorf("%w: query sleep sessions: %w", models.ErrSourceUnavailable, err)
	}
	return records, nil
}

func (s *Service) report(rec models.RawRecord) models.SleepReport {
	for _, err := range Unrecognized(rec.Stages) {
		logger.Warn("sleep stage counted as awake", "session_id", rec.ID, "error", err)
	}
	return NewReport(rec)
}
