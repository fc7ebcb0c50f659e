package core

// resolver.go assigns organization ids to accepted submissions.
//
// Ids are sequential: the first organization created in a run gets the
// highest persisted id plus one, the next plus two, and so on. Lookups are
// case-insensitive on the organization name.

import (
	"github.com/JonMunkholm/spregistry/internal/store/table"
)

// ResolveOutcome describes what Resolve did.
type ResolveOutcome string

const (
	OutcomeCreated   ResolveOutcome = "created"
	OutcomeRefreshed ResolveOutcome = "refreshed"
	OutcomeUnchanged ResolveOutcome = "unchanged"
)

// Resolution is the result of resolving one organization name.
type Resolution struct {
	ID      int
	Outcome ResolveOutcome

	// Field is the contact field that was refreshed ("name", "handle" or
	// "email"); empty unless Outcome is OutcomeRefreshed.
	Field string
}

// OrganizationResolver owns the organization index for one run.
type OrganizationResolver struct {
	prior      []*Organization
	byName     map[string]*Organization
	maxPriorID int
	created    []*Organization
	refreshed  map[*Organization]struct{}
	duplicates []string
}

// NewOrganizationResolver indexes the persisted organizations. When two rows
// share a name, the first one wins.
func NewOrganizationResolver(rows []table.Row) *OrganizationResolver {
	r := &OrganizationResolver{
		prior:     make([]*Organization, 0, len(rows)),
		byName:    make(map[string]*Organization, len(rows)),
		refreshed: make(map[*Organization]struct{}),
	}

	for _, row := range rows {
		org := OrganizationFromRow(row)
		p := &org
		r.prior = append(r.prior, p)

		if org.ID > r.maxPriorID {
			r.maxPriorID = org.ID
		}

		key := OrganizationKey(org.Name)
		if key == "" {
			continue
		}
		if _, exists := r.byName[key]; exists {
			r.duplicates = append(r.duplicates, org.Name)
			continue
		}
		r.byName[key] = p
	}

	return r
}

// MaxPriorID returns the highest id found in the persisted table.
func (r *OrganizationResolver) MaxPriorID() int {
	return r.maxPriorID
}

// DuplicateNames returns persisted names that collided case-insensitively
// with an earlier row.
func (r *OrganizationResolver) DuplicateNames() []string {
	return r.duplicates
}

// InvalidStoredID reports whether name matches a persisted organization whose
// sp_org_id does not parse, returning the stored value. Such an organization
// cannot be linked from the listing.
func (r *OrganizationResolver) InvalidStoredID(name string) (string, bool) {
	org, ok := r.byName[OrganizationKey(name)]
	if !ok || org.ID > 0 {
		return "", false
	}
	return org.raw.Get("sp_org_id"), true
}

// Resolve returns the id for name, creating the organization when unknown.
//
// For a known organization at most one contact field is refreshed per call:
// the first that differs in the order name, handle, email.
func (r *OrganizationResolver) Resolve(name string, contact Contact) Resolution {
	key := OrganizationKey(name)

	if org, ok := r.byName[key]; ok {
		res := Resolution{ID: org.ID, Outcome: OutcomeRefreshed}
		switch {
		case org.Contact.Name != contact.Name:
			org.Contact.Name = contact.Name
			res.Field = "name"
		case org.Contact.Handle != contact.Handle:
			org.Contact.Handle = contact.Handle
			res.Field = "handle"
		case org.Contact.Email != contact.Email:
			org.Contact.Email = contact.Email
			res.Field = "email"
		default:
			res.Outcome = OutcomeUnchanged
		}
		if res.Outcome == OutcomeRefreshed && org.raw != nil {
			r.refreshed[org] = struct{}{}
		}
		return res
	}

	org := &Organization{
		ID:      r.maxPriorID + len(r.created) + 1,
		Name:    name,
		Contact: contact,
	}
	r.created = append(r.created, org)
	r.byName[key] = org

	return Resolution{ID: org.ID, Outcome: OutcomeCreated}
}

// Created returns the organizations created so far, in creation order.
func (r *OrganizationResolver) Created() []Organization {
	out := make([]Organization, len(r.created))
	for i, o := range r.created {
		out[i] = *o
	}
	return out
}

// RefreshedCount returns how many persisted organizations had contact data
// refreshed.
func (r *OrganizationResolver) RefreshedCount() int {
	return len(r.refreshed)
}

// Rows returns the full organizations table: persisted rows (with refreshed
// contact data) followed by created rows.
func (r *OrganizationResolver) Rows() []table.Row {
	rows := make([]table.Row, 0, len(r.prior)+len(r.created))
	for _, o := range r.prior {
		if _, ok := r.refreshed[o]; ok {
			rows = append(rows, o.Row())
		} else {
			rows = append(rows, o.raw.Clone())
		}
	}
	for _, o := range r.created {
		rows = append(rows, o.Row())
	}
	return rows
}
