package core

// validation.go decides whether a submission may be merged into the listing.
//
// Every rule runs for every submitted identifier so the error list handed to
// the processing log and the issue report is complete. Any error rejects the
// whole submission, whichever identifier caused it.

import (
	"fmt"

	"github.com/JonMunkholm/spregistry/internal/csvio"
)

// Rule identifies which validation rule produced an error.
type Rule string

const (
	RuleCheckFailed   Rule = "check_failed"
	RuleAlreadyListed Rule = "already_listed"
	RuleDuplicate     Rule = "duplicate_in_submission"
	RuleNoEntries     Rule = "no_entries"
	RuleInvalidOrgID  Rule = "invalid_org_id"
)

// NoEntriesMessage is reported for submissions without any identifier.
const NoEntriesMessage = "no storage provider ids submitted"

// ValidationError is a single rule violation.
type ValidationError struct {
	Identifier string // offending identifier, "" for record-level rules
	Rule       Rule
	Message    string // human-readable, persisted in the processing log
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationResult is the verdict for one submission.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError

	// Accepted lists the entries to merge when Valid, in form order with
	// in-submission repeats removed.
	Accepted []IdentifierEntry
}

// Messages returns the error messages in evaluation order.
func (r ValidationResult) Messages() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Message
	}
	return out
}

// RejectInvalidOrgID replaces the verdict with a record-level error for an
// organization whose stored sp_org_id is unusable.
func RejectInvalidOrgID(organization, storedID string) ValidationResult {
	return ValidationResult{
		Errors: []ValidationError{{
			Rule:    RuleInvalidOrgID,
			Message: fmt.Sprintf("%s has invalid sp_org_id %q", organization, storedID),
		}},
	}
}

// CheckIndex maps identifiers to their eligibility verdict.
type CheckIndex map[string]bool

// NewCheckIndex indexes check results; the last result for an identifier wins.
// Identifiers are cleaned like form cells so both sides compare equal.
func NewCheckIndex(results []CheckResult) CheckIndex {
	idx := make(CheckIndex, len(results))
	for _, r := range results {
		idx[csvio.CleanCell(r.Identifier)] = r.Success
	}
	return idx
}

// Validator checks submissions against the listing index.
type Validator struct {
	listed ListingIndex
}

// NewValidator creates a validator backed by listed, which the caller keeps
// current as submissions are accepted.
func NewValidator(listed ListingIndex) *Validator {
	return &Validator{listed: listed}
}

// Validate evaluates a submission's entries against its check results.
func (v *Validator) Validate(sub Submission, checks CheckIndex) ValidationResult {
	if len(sub.Entries) == 0 {
		return ValidationResult{
			Errors: []ValidationError{{Rule: RuleNoEntries, Message: NoEntriesMessage}},
		}
	}

	errs, accepted := v.ValidateEntries(sub.Entries, checks, make(map[string]struct{}, len(sub.Entries)))
	return ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Accepted: accepted,
	}
}

// ValidateEntries runs the per-identifier rules in entry order. seen holds
// identifiers already encountered in the same submission and is updated.
func (v *Validator) ValidateEntries(entries []IdentifierEntry, checks CheckIndex, seen map[string]struct{}) ([]ValidationError, []IdentifierEntry) {
	var (
		errs     []ValidationError
		accepted []IdentifierEntry
	)

	for _, e := range entries {
		id := e.Identifier

		if ok, found := checks[id]; !found || !ok {
			errs = append(errs, ValidationError{
				Identifier: id,
				Rule:       RuleCheckFailed,
				Message:    fmt.Sprintf("%s failed", id),
			})
		}

		if v.listed.Contains(id) {
			errs = append(errs, ValidationError{
				Identifier: id,
				Rule:       RuleAlreadyListed,
				Message:    fmt.Sprintf("%s already listed", id),
			})
		}

		if _, dup := seen[id]; dup {
			errs = append(errs, ValidationError{
				Identifier: id,
				Rule:       RuleDuplicate,
				Message:    fmt.Sprintf("%s submitted more than once", id),
			})
			continue
		}
		seen[id] = struct{}{}
		accepted = append(accepted, e)
	}

	return errs, accepted
}
