package core

import "fmt"

// Table keys. The physical table name used by a store is configurable and
// mapped through TableNames.
const (
	TableOrganizations = "organizations"
	TableListing       = "listing"
	TableProcessingLog = "processing_log"
)

// Column names, in persisted order.
var (
	OrganizationColumns = []string{
		"sp_org_id", "sp_organization", "contact_name", "contact_slack_id", "contact_email",
	}
	ListingColumns = []string{
		"sp_id", "sp_organization", "sp_org_id", "loc_city", "loc_country", "loc_continent", "active", "slack_id",
	}
	ProcessingLogColumns = []string{
		"processed_time", "response_id", "timestamp", "success", "error_message", "issue_id",
	}
)

// TableInfo describes one of the registry tables.
type TableInfo struct {
	Key       string   // "organizations", "listing", "processing_log"
	Label     string   // display name
	Columns   []string // persisted column order
	UniqueKey string   // column that must be unique, "" when rows are never deduplicated
}

var definitions = []TableInfo{
	{Key: TableOrganizations, Label: "Organizations", Columns: OrganizationColumns, UniqueKey: "sp_org_id"},
	{Key: TableListing, Label: "Listing", Columns: ListingColumns, UniqueKey: "sp_id"},
	{Key: TableProcessingLog, Label: "Processing Log", Columns: ProcessingLogColumns},
}

// Tables returns the registry table definitions in load order.
func Tables() []TableInfo {
	out := make([]TableInfo, len(definitions))
	copy(out, definitions)
	return out
}

// LookupTable returns the definition for key.
func LookupTable(key string) (TableInfo, bool) {
	for _, def := range definitions {
		if def.Key == key {
			return def, true
		}
	}
	return TableInfo{}, false
}

// TableNames maps table keys to the physical names used by the store.
type TableNames struct {
	Organizations string
	Listing       string
	ProcessingLog string
}

// DefaultTableNames uses the table keys as physical names.
func DefaultTableNames() TableNames {
	return TableNames{
		Organizations: TableOrganizations,
		Listing:       TableListing,
		ProcessingLog: TableProcessingLog,
	}
}

// Name returns the physical name for a table key.
func (n TableNames) Name(key string) (string, error) {
	switch key {
	case TableOrganizations:
		return n.Organizations, nil
	case TableListing:
		return n.Listing, nil
	case TableProcessingLog:
		return n.ProcessingLog, nil
	default:
		return "", fmt.Errorf("unknown table %q", key)
	}
}
