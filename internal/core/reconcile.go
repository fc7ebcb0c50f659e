package core

// reconcile.go merges a batch of submissions into the registry tables.
//
// Submissions are processed strictly in input order against a single set of
// indexes: a record's verdict depends on every record accepted before it, so
// the loop below must never be parallelized.

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/spregistry/internal/geo"
	"github.com/JonMunkholm/spregistry/internal/logging"
	"github.com/JonMunkholm/spregistry/internal/store/table"
)

// ErrorDelimiter joins validation errors in the processing log.
const ErrorDelimiter = ","

// ContinentFunc maps a country code to a continent code, "" when unknown.
type ContinentFunc func(country string) string

// Driver runs the reconciliation algorithm.
type Driver struct {
	now       func() time.Time
	continent ContinentFunc
	issueID   string
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithClock overrides the wall clock used for processed_time.
func WithClock(now func() time.Time) DriverOption {
	return func(d *Driver) { d.now = now }
}

// WithContinentLookup overrides the country to continent mapping.
func WithContinentLookup(fn ContinentFunc) DriverOption {
	return func(d *Driver) { d.continent = fn }
}

// WithIssueID sets the issue_id recorded on every processing log row.
func WithIssueID(id string) DriverOption {
	return func(d *Driver) { d.issueID = id }
}

// NewDriver creates a Driver using the system clock and the built-in
// continent table.
func NewDriver(opts ...DriverOption) *Driver {
	d := &Driver{
		now:       time.Now,
		continent: geo.Continent,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Reconcile validates every input in order and returns the full table images
// plus the rows added by this run. It never fails: rule violations are
// recorded per input.
func (d *Driver) Reconcile(ctx context.Context, inputs []Submission, prior Prior) Result {
	log := logging.FromContext(ctx)
	processedAt := d.now().UTC().Truncate(time.Second)

	listed := NewListingIndex(prior.Listing)
	validator := NewValidator(listed)
	resolver := NewOrganizationResolver(prior.Organizations)

	for _, name := range resolver.DuplicateNames() {
		log.Warn("duplicate organization name in stored table, keeping first row",
			slog.String("organization", name))
	}

	var res Result
	for _, sub := range inputs {
		verdict := validator.Validate(sub, NewCheckIndex(sub.Results))
		if verdict.Valid {
			if stored, bad := resolver.InvalidStoredID(sub.Organization); bad {
				verdict = RejectInvalidOrgID(sub.Organization, stored)
			}
		}

		if verdict.Valid {
			r := resolver.Resolve(sub.Organization, sub.Contact)
			logResolution(log, sub, r)

			for _, e := range verdict.Accepted {
				entry := ListingEntry{
					Identifier:   e.Identifier,
					Organization: sub.Organization,
					OrgID:        r.ID,
					City:         e.City,
					Country:      e.Country,
					Continent:    d.continent(e.Country),
					Active:       true,
					Handle:       sub.Contact.Handle,
				}
				res.NewListing = append(res.NewListing, entry)
				listed.Add(e.Identifier)
			}
			res.Accepted++
		}

		msgs := verdict.Messages()
		res.NewProcessingLog = append(res.NewProcessingLog, ProcessingLogEntry{
			ProcessedTime: processedAt,
			ResponseID:    sub.ResponseID,
			Timestamp:     sub.Timestamp,
			Success:       verdict.Valid,
			ErrorMessage:  strings.Join(msgs, ErrorDelimiter),
			IssueID:       d.issueID,
		})

		if !verdict.Valid {
			log.Info("submission rejected",
				slog.String("response_id", sub.ResponseID),
				slog.String("organization", sub.Organization),
				slog.Any("errors", msgs))
			res.Failed = append(res.Failed, Failure{Submission: sub, Errors: msgs})
		}
	}

	res.NewOrganizations = resolver.Created()
	res.RefreshedOrganizations = resolver.RefreshedCount()

	res.Organizations = resolver.Rows()
	res.Listing = appendRows(cloneRows(prior.Listing), res.NewListing, ListingEntry.Row)
	res.ProcessingLog = appendRows(cloneRows(prior.ProcessingLog), res.NewProcessingLog, ProcessingLogEntry.Row)

	return res
}

func logResolution(log *slog.Logger, sub Submission, r Resolution) {
	switch r.Outcome {
	case OutcomeCreated:
		log.Info("organization created",
			slog.String("organization", sub.Organization),
			slog.Int("sp_org_id", r.ID))
	case OutcomeRefreshed:
		log.Info("organization contact refreshed",
			slog.String("organization", sub.Organization),
			slog.Int("sp_org_id", r.ID),
			slog.String("field", r.Field))
	default:
		log.Debug("organization matched",
			slog.String("organization", sub.Organization),
			slog.Int("sp_org_id", r.ID))
	}
}

func appendRows[T any](dst []table.Row, items []T, encode func(T) table.Row) []table.Row {
	for _, it := range items {
		dst = append(dst, encode(it))
	}
	return dst
}
