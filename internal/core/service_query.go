package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/spregistry/internal/store/table"
)

// ListTables returns the registry table definitions.
func (s *Service) ListTables() []TableInfo {
	return Tables()
}

// TableRows returns the stored rows of the table with the given key.
func (s *Service) TableRows(ctx context.Context, key string) ([]table.Row, error) {
	return s.loadTable(ctx, key)
}

// Organizations returns every stored organization.
func (s *Service) Organizations(ctx context.Context) ([]Organization, error) {
	rows, err := s.loadTable(ctx, TableOrganizations)
	if err != nil {
		return nil, err
	}
	out := make([]Organization, len(rows))
	for i, r := range rows {
		out[i] = OrganizationFromRow(r)
	}
	return out, nil
}

// Organization returns the organization with the given id.
func (s *Service) Organization(ctx context.Context, id int) (Organization, error) {
	orgs, err := s.Organizations(ctx)
	if err != nil {
		return Organization{}, err
	}
	for _, o := range orgs {
		if o.ID == id {
			return o, nil
		}
	}
	return Organization{}, fmt.Errorf("organization %d: %w", id, ErrRecordNotFound)
}

// ListingFilter narrows Listing results. Zero fields match everything.
type ListingFilter struct {
	OrgID     int
	Country   string
	Continent string
}

func (f ListingFilter) match(e ListingEntry) bool {
	if f.OrgID != 0 && e.OrgID != f.OrgID {
		return false
	}
	if f.Country != "" && !strings.EqualFold(e.Country, f.Country) {
		return false
	}
	if f.Continent != "" && !strings.EqualFold(e.Continent, f.Continent) {
		return false
	}
	return true
}

// Listing returns the stored listing entries matching f.
func (s *Service) Listing(ctx context.Context, f ListingFilter) ([]ListingEntry, error) {
	rows, err := s.loadTable(ctx, TableListing)
	if err != nil {
		return nil, err
	}
	out := make([]ListingEntry, 0, len(rows))
	for _, r := range rows {
		if e := ListingEntryFromRow(r); f.match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListingEntry returns the listing entry for a storage provider id.
func (s *Service) ListingEntry(ctx context.Context, spID string) (ListingEntry, error) {
	rows, err := s.loadTable(ctx, TableListing)
	if err != nil {
		return ListingEntry{}, err
	}
	for _, r := range rows {
		if r.Get("sp_id") == spID {
			return ListingEntryFromRow(r), nil
		}
	}
	return ListingEntry{}, fmt.Errorf("listing %s: %w", spID, ErrRecordNotFound)
}

// ProcessingLog returns the stored processing log rows, optionally limited
// to a single response id.
func (s *Service) ProcessingLog(ctx context.Context, responseID string) ([]table.Row, error) {
	rows, err := s.loadTable(ctx, TableProcessingLog)
	if err != nil {
		return nil, err
	}
	if responseID == "" {
		return rows, nil
	}
	out := make([]table.Row, 0)
	for _, r := range rows {
		if r.Get("response_id") == responseID {
			out = append(out, r)
		}
	}
	return out, nil
}
