package core

// convert.go maps between stored table rows and the engine's types.
//
// Prior rows are preserved as they were read: decoding only extracts what the
// engine needs, and encoding an organization starts from its stored row so
// unknown columns and unparseable ids survive a rewrite untouched.

import (
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/spregistry/internal/store/table"
)

// ProcessedTimeLayout is the persisted format of processed_time.
const ProcessedTimeLayout = time.RFC3339

// ParseBool accepts the boolean spellings spreadsheets produce:
// true/false, yes/no, t/f, y/n, 1/0 (case-insensitive).
// ok is false for anything else.
func ParseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	default:
		return false, false
	}
}

// FormatBool renders a boolean the way the tables store it.
func FormatBool(b bool) string {
	return strconv.FormatBool(b)
}

// ParseOrgID parses an sp_org_id cell. ok is false for blank, non-numeric
// or non-positive values.
func ParseOrgID(s string) (id int, ok bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// OrganizationFromRow decodes an organizations row. ID is 0 when the stored
// id does not parse.
func OrganizationFromRow(row table.Row) Organization {
	id, _ := ParseOrgID(row.Get("sp_org_id"))
	return Organization{
		ID:   id,
		Name: row.Get("sp_organization"),
		Contact: Contact{
			Name:   row.Get("contact_name"),
			Handle: row.Get("contact_slack_id"),
			Email:  row.Get("contact_email"),
		},
		raw: row,
	}
}

// Row encodes the organization, starting from its stored row when it has one.
func (o Organization) Row() table.Row {
	var row table.Row
	if o.raw != nil {
		row = o.raw.Clone()
	} else {
		row = make(table.Row, len(OrganizationColumns))
	}
	if o.ID > 0 {
		row["sp_org_id"] = strconv.Itoa(o.ID)
	}
	row["sp_organization"] = o.Name
	row["contact_name"] = o.Contact.Name
	row["contact_slack_id"] = o.Contact.Handle
	row["contact_email"] = o.Contact.Email
	return row
}

// ListingEntryFromRow decodes a listing row. Unparseable ids decode as 0 and
// unparseable active flags as false.
func ListingEntryFromRow(row table.Row) ListingEntry {
	orgID, _ := ParseOrgID(row.Get("sp_org_id"))
	active, _ := ParseBool(row.Get("active"))
	return ListingEntry{
		Identifier:   row.Get("sp_id"),
		Organization: row.Get("sp_organization"),
		OrgID:        orgID,
		City:         row.Get("loc_city"),
		Country:      row.Get("loc_country"),
		Continent:    row.Get("loc_continent"),
		Active:       active,
		Handle:       row.Get("slack_id"),
	}
}

// Row encodes the listing entry.
func (l ListingEntry) Row() table.Row {
	return table.Row{
		"sp_id":           l.Identifier,
		"sp_organization": l.Organization,
		"sp_org_id":       strconv.Itoa(l.OrgID),
		"loc_city":        l.City,
		"loc_country":     l.Country,
		"loc_continent":   l.Continent,
		"active":          FormatBool(l.Active),
		"slack_id":        l.Handle,
	}
}

// Row encodes the processing log entry.
func (p ProcessingLogEntry) Row() table.Row {
	return table.Row{
		"processed_time": p.ProcessedTime.UTC().Format(ProcessedTimeLayout),
		"response_id":    p.ResponseID,
		"timestamp":      p.Timestamp,
		"success":        FormatBool(p.Success),
		"error_message":  p.ErrorMessage,
		"issue_id":       p.IssueID,
	}
}

func cloneRows(rows []table.Row) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
