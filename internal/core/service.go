package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/spregistry/internal/logging"
	"github.com/JonMunkholm/spregistry/internal/store/table"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

// ErrRecordNotFound is returned by the lookup accessors.
var ErrRecordNotFound = errors.New("record not found")

// Run stages reported to the Recorder when a run aborts.
const (
	StageLock   = "lock"
	StageParse  = "parse"
	StageLoad   = "load"
	StageCommit = "commit"
)

// Notifier reports rejected submissions to the issue tracker.
type Notifier interface {
	// Enabled reports whether notifications should be attempted at all.
	Enabled() bool
	// Notify files a report for f and returns its URL.
	Notify(ctx context.Context, f Failure) (string, error)
}

// Recorder receives run telemetry.
type Recorder interface {
	RunCompleted(r *RunReport)
	RunFailed(stage string)
	NotificationSent(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) RunCompleted(*RunReport) {}
func (nopRecorder) RunFailed(string)        {}
func (nopRecorder) NotificationSent(bool)   {}

// ServiceConfig holds the run settings the Service needs.
type ServiceConfig struct {
	Tables       TableNames
	AllowMissing bool          // treat absent tables as empty
	IssueID      string        // recorded on every processing log row
	LockWait     time.Duration // how long a run waits for the previous one
	Timeout      time.Duration // upper bound for a whole run, 0 for none
	HistorySize  int
}

// RunOptions are per-run settings.
type RunOptions struct {
	DryRun  bool
	Trigger string // "cli", "http"
}

// Service loads the registry tables, reconciles a batch into them and
// persists the result.
type Service struct {
	store    table.Store
	notifier Notifier
	recorder Recorder
	cfg      ServiceConfig

	limiter    *RunLimiter
	history    *RunHistory
	driverOpts []DriverOption
	now        func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder sets the telemetry sink.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// WithDriverOptions passes options to the Driver of every run.
func WithDriverOptions(opts ...DriverOption) ServiceOption {
	return func(s *Service) { s.driverOpts = append(s.driverOpts, opts...) }
}

// NewService creates a Service. notifier may be nil to disable reporting.
func NewService(store table.Store, notifier Notifier, cfg ServiceConfig, opts ...ServiceOption) *Service {
	if cfg.Tables == (TableNames{}) {
		cfg.Tables = DefaultTableNames()
	}

	s := &Service{
		store:    store,
		notifier: notifier,
		recorder: nopRecorder{},
		cfg:      cfg,
		limiter:  NewRunLimiter(cfg.LockWait),
		history:  NewRunHistory(cfg.HistorySize),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limiter exposes the run limiter for shutdown draining.
func (s *Service) Limiter() *RunLimiter { return s.limiter }

// History returns recent run reports.
func (s *Service) History() *RunHistory { return s.history }

// Run reconciles the batch read from r into the registry tables.
//
// Parse, load and commit errors abort the run before anything is persisted.
// Rejected submissions are reported after the commit; notification errors
// are logged and counted but never fail the run.
func (s *Service) Run(ctx context.Context, r io.Reader, opts RunOptions) (*RunReport, error) {
	start := s.now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.FromContext(ctx)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	log.Info("run started",
		slog.Bool("dry_run", opts.DryRun),
		slog.String("trigger", opts.Trigger),
		slog.String("remote_addr", RemoteAddrFromContext(ctx)),
		slog.String("user_agent", UserAgentFromContext(ctx)),
	)

	if err := s.limiter.Acquire(ctx); err != nil {
		s.recorder.RunFailed(StageLock)
		return nil, err
	}
	defer s.limiter.Release()

	inputs, err := ParseBatch(r)
	if err != nil {
		s.recorder.RunFailed(StageParse)
		return nil, err
	}
	log.Info("batch parsed", slog.Int("submissions", len(inputs)))

	prior, err := s.loadPrior(ctx)
	if err != nil {
		s.recorder.RunFailed(StageLoad)
		return nil, err
	}

	driverOpts := append([]DriverOption{
		WithClock(s.now),
		WithIssueID(s.cfg.IssueID),
	}, s.driverOpts...)
	res := NewDriver(driverOpts...).Reconcile(ctx, inputs, prior)

	report := &RunReport{
		RunID:                  runID,
		DryRun:                 opts.DryRun,
		ProcessedAt:            processedAt(res, start),
		Inputs:                 len(inputs),
		Accepted:               res.Accepted,
		Rejected:               len(res.Failed),
		NewOrganizations:       len(res.NewOrganizations),
		RefreshedOrganizations: res.RefreshedOrganizations,
		NewListings:            len(res.NewListing),
	}
	for _, f := range res.Failed {
		report.Failures = append(report.Failures, FailureInfo{
			ResponseID:   f.Submission.ResponseID,
			Organization: f.Submission.Organization,
			Errors:       f.Errors,
		})
	}

	if opts.DryRun {
		log.Info("dry run, skipping commit and notifications")
	} else {
		if err := s.commit(ctx, res); err != nil {
			s.recorder.RunFailed(StageCommit)
			return nil, err
		}
		s.notify(ctx, res.Failed, report)
	}

	report.Duration = time.Since(start)
	s.recorder.RunCompleted(report)
	s.history.Add(*report)

	log.Info("run completed",
		slog.Int("inputs", report.Inputs),
		slog.Int("accepted", report.Accepted),
		slog.Int("rejected", report.Rejected),
		slog.Int("new_organizations", report.NewOrganizations),
		slog.Int("new_listings", report.NewListings),
		slog.Int("notifications_failed", report.NotificationsFailed),
		slog.Int64("duration_ms", report.Duration.Milliseconds()),
	)

	return report, nil
}

func processedAt(res Result, fallback time.Time) time.Time {
	if len(res.NewProcessingLog) > 0 {
		return res.NewProcessingLog[0].ProcessedTime
	}
	return fallback.UTC().Truncate(time.Second)
}

func (s *Service) loadPrior(ctx context.Context) (Prior, error) {
	var (
		prior Prior
		err   error
	)
	if prior.Organizations, err = s.loadTable(ctx, TableOrganizations); err != nil {
		return Prior{}, err
	}
	if prior.Listing, err = s.loadTable(ctx, TableListing); err != nil {
		return Prior{}, err
	}
	if prior.ProcessingLog, err = s.loadTable(ctx, TableProcessingLog); err != nil {
		return Prior{}, err
	}
	return prior, nil
}

func (s *Service) loadTable(ctx context.Context, key string) ([]table.Row, error) {
	info, ok := LookupTable(key)
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", key)
	}
	name, err := s.cfg.Tables.Name(key)
	if err != nil {
		return nil, err
	}

	log := logging.WithFields(ctx, slog.String("table", name))
	rows, err := s.store.Load(ctx, name, info.Columns)
	if errors.Is(err, table.ErrNotFound) && s.cfg.AllowMissing {
		log.Warn("table missing, starting empty")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	log.Debug("table loaded", slog.Int("rows", len(rows)))
	return rows, nil
}

func (s *Service) commit(ctx context.Context, res Result) error {
	images := []struct {
		key  string
		rows []table.Row
	}{
		{TableOrganizations, res.Organizations},
		{TableListing, res.Listing},
		{TableProcessingLog, res.ProcessingLog},
	}

	tables := make([]table.Table, 0, len(images))
	for _, img := range images {
		info, _ := LookupTable(img.key)
		name, err := s.cfg.Tables.Name(img.key)
		if err != nil {
			return fmt.Errorf("commit tables: %w", err)
		}
		tables = append(tables, table.Table{Name: name, Columns: info.Columns, Rows: img.rows})
	}

	if err := s.store.Commit(ctx, tables...); err != nil {
		return fmt.Errorf("commit tables: %w", err)
	}
	logging.FromContext(ctx).Info("tables committed",
		slog.String("driver", string(s.store.Driver())),
		slog.Int("organizations", len(res.Organizations)),
		slog.Int("listing", len(res.Listing)),
		slog.Int("processing_log", len(res.ProcessingLog)),
	)
	return nil
}

// notify reports failures in input order, one at a time.
func (s *Service) notify(ctx context.Context, failed []Failure, report *RunReport) {
	if len(failed) == 0 || s.notifier == nil || !s.notifier.Enabled() {
		return
	}

	log := logging.FromContext(ctx)
	for i, f := range failed {
		url, err := s.notifier.Notify(ctx, f)
		s.recorder.NotificationSent(err == nil)
		if err != nil {
			report.NotificationsFailed++
			log.Error("notification failed",
				slog.String("response_id", f.Submission.ResponseID),
				slog.String("organization", f.Submission.Organization),
				slog.String("error", err.Error()),
			)
			continue
		}
		report.NotificationsSent++
		report.Failures[i].IssueURL = url
		log.Info("notification sent",
			slog.String("response_id", f.Submission.ResponseID),
			slog.String("issue_url", url),
		)
	}
}
