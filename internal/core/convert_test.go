package core

import (
	"testing"
	"time"

	"github.com/JonMunkholm/spregistry/internal/store/table"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		input  string
		want   bool
		wantOK bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{" yes ", true, true},
		{"t", true, true},
		{"1", true, true},
		{"false", false, true},
		{"No", false, true},
		{"0", false, true},
		{"", false, false},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseBool(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseBool(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseOrgID(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"1", 1, true},
		{" 42 ", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"", 0, false},
		{"12a", 0, false},
		{"1.5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseOrgID(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseOrgID(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestOrganizationRowPreservesUnknownColumns(t *testing.T) {
	stored := table.Row{
		"sp_org_id":        "7",
		"sp_organization":  "Acme",
		"contact_name":     "Ann",
		"contact_slack_id": "@ann",
		"contact_email":    "ann@acme.io",
		"notes":            "keep me",
	}

	org := OrganizationFromRow(stored)
	if org.ID != 7 || org.Name != "Acme" || org.Contact.Handle != "@ann" {
		t.Fatalf("decoded %+v", org)
	}

	org.Contact.Email = "ops@acme.io"
	row := org.Row()
	if row["notes"] != "keep me" {
		t.Errorf("notes column lost: %v", row)
	}
	if row["contact_email"] != "ops@acme.io" {
		t.Errorf("contact_email = %q", row["contact_email"])
	}
	if stored["contact_email"] != "ann@acme.io" {
		t.Error("encoding mutated the stored row")
	}
}

func TestOrganizationRowKeepsUnparseableID(t *testing.T) {
	org := OrganizationFromRow(table.Row{"sp_org_id": "legacy-3", "sp_organization": "Old"})
	if org.ID != 0 {
		t.Fatalf("ID = %d, want 0", org.ID)
	}
	if got := org.Row()["sp_org_id"]; got != "legacy-3" {
		t.Errorf("sp_org_id = %q, want legacy-3", got)
	}
}

func TestListingEntryRow(t *testing.T) {
	e := ListingEntry{
		Identifier:   "f01234",
		Organization: "Acme",
		OrgID:        3,
		City:         "Berlin",
		Country:      "DE",
		Continent:    "EU",
		Active:       true,
		Handle:       "@ann",
	}
	row := e.Row()

	want := []string{"f01234", "Acme", "3", "Berlin", "DE", "EU", "true", "@ann"}
	got := row.Values(ListingColumns)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %s = %q, want %q", ListingColumns[i], got[i], want[i])
		}
	}

	if back := ListingEntryFromRow(row); back != e {
		t.Errorf("ListingEntryFromRow() = %+v, want %+v", back, e)
	}
}

func TestProcessingLogEntryRow(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	p := ProcessingLogEntry{
		ProcessedTime: time.Date(2024, 3, 1, 13, 4, 5, 0, loc),
		ResponseID:    "r1",
		Timestamp:     "2024-02-28 10:00:00",
		Success:       false,
		ErrorMessage:  "f01 failed,f01 already listed",
		IssueID:       "17",
	}

	row := p.Row()
	if row["processed_time"] != "2024-03-01T12:04:05Z" {
		t.Errorf("processed_time = %q", row["processed_time"])
	}
	if row["success"] != "false" {
		t.Errorf("success = %q", row["success"])
	}
	if row["error_message"] != p.ErrorMessage || row["issue_id"] != "17" {
		t.Errorf("row = %v", row)
	}
}
