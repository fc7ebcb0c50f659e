package core

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/spregistry/internal/store/table"
)

// MaxIdentifierEntries is the number of storage provider id slots on the form.
const MaxIdentifierEntries = 3

// Submission field keys as exported by the registration form.
const (
	FieldResponseID    = "responseId"
	FieldTimestamp     = "timestamp"
	FieldOrganization  = "0_storage_provider_operator_name"
	FieldContactName   = "0_your_name"
	FieldContactHandle = "0_your_handle_on_filecoin_io_slack"
	FieldContactEmail  = "0_your_email"
)

// MinerIDField returns the form key of the identifier in slot i (1-based).
func MinerIDField(i int) string { return strconv.Itoa(i) + "_minerid" }

// CityField returns the form key of the city in slot i (1-based).
func CityField(i int) string { return strconv.Itoa(i) + "_city" }

// CountryField returns the form key of the country in slot i (1-based).
func CountryField(i int) string { return strconv.Itoa(i) + "_country" }

// IdentifierEntry is one storage provider id submitted on the form.
type IdentifierEntry struct {
	Position   int    // form slot, 1..MaxIdentifierEntries
	Identifier string // storage provider id, e.g. "f01234"
	City       string
	Country    string // alpha-2 country code
}

// CheckResult is the externally computed eligibility verdict for an identifier.
type CheckResult struct {
	Identifier string `json:"identifier"`
	Success    bool   `json:"success"`
}

// Contact holds the mutable contact fields of an organization.
type Contact struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
	Email  string `json:"email"`
}

// Submission is one form response together with its check results.
type Submission struct {
	ResponseID   string
	Timestamp    string
	Organization string
	Contact      Contact
	Entries      []IdentifierEntry
	Results      []CheckResult

	// Fields holds the cleaned form fields, used when rendering reports.
	Fields map[string]string
}

// Organization is a row of the organizations table.
type Organization struct {
	ID      int     `json:"sp_org_id"`
	Name    string  `json:"sp_organization"`
	Contact Contact `json:"contact"`

	// raw is the stored row this organization was decoded from; nil for
	// organizations created in the current run.
	raw table.Row
}

// ListingEntry is a row of the listing table.
type ListingEntry struct {
	Identifier   string `json:"sp_id"`
	Organization string `json:"sp_organization"`
	OrgID        int    `json:"sp_org_id"`
	City         string `json:"loc_city"`
	Country      string `json:"loc_country"`
	Continent    string `json:"loc_continent"`
	Active       bool   `json:"active"`
	Handle       string `json:"slack_id"`
}

// ProcessingLogEntry is a row of the processing log.
type ProcessingLogEntry struct {
	ProcessedTime time.Time
	ResponseID    string
	Timestamp     string
	Success       bool
	ErrorMessage  string
	IssueID       string
}

// Failure is a submission rejected by validation.
type Failure struct {
	Submission Submission
	Errors     []string
}

// Prior is the persisted state a run starts from.
type Prior struct {
	Organizations []table.Row
	Listing       []table.Row
	ProcessingLog []table.Row
}

// Result is the outcome of reconciling one batch.
type Result struct {
	// Full table images: prior rows followed by new rows.
	Organizations []table.Row
	Listing       []table.Row
	ProcessingLog []table.Row

	NewOrganizations []Organization
	NewListing       []ListingEntry
	NewProcessingLog []ProcessingLogEntry

	// RefreshedOrganizations counts existing organizations whose contact
	// data changed during the run.
	RefreshedOrganizations int

	Accepted int
	Failed   []Failure
}

// RunReport summarizes a completed run.
type RunReport struct {
	RunID                  string        `json:"runId"`
	DryRun                 bool          `json:"dryRun"`
	ProcessedAt            time.Time     `json:"processedAt"`
	Inputs                 int           `json:"inputs"`
	Accepted               int           `json:"accepted"`
	Rejected               int           `json:"rejected"`
	NewOrganizations       int           `json:"newOrganizations"`
	RefreshedOrganizations int           `json:"refreshedOrganizations"`
	NewListings            int           `json:"newListings"`
	NotificationsSent      int           `json:"notificationsSent"`
	NotificationsFailed    int           `json:"notificationsFailed"`
	Failures               []FailureInfo `json:"failures,omitempty"`
	Duration               time.Duration `json:"duration"`
}

// FailureInfo is the reportable part of a Failure.
type FailureInfo struct {
	ResponseID   string   `json:"responseId"`
	Organization string   `json:"organization"`
	Errors       []string `json:"errors"`
	IssueURL     string   `json:"issueUrl,omitempty"`
}
