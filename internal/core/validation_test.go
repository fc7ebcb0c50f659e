package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/spregistry/internal/store/table"
)

func entries(ids ...string) []IdentifierEntry {
	out := make([]IdentifierEntry, len(ids))
	for i, id := range ids {
		out[i] = IdentifierEntry{Position: i + 1, Identifier: id}
	}
	return out
}

func TestNewCheckIndex_LastResultWins(t *testing.T) {
	idx := NewCheckIndex([]CheckResult{
		{"f01", false},
		{"f02", true},
		{"f01", true},
	})
	assert.True(t, idx["f01"])
	assert.True(t, idx["f02"])
	_, ok := idx["f03"]
	assert.False(t, ok)
}

func TestNewCheckIndex_CleansIdentifiers(t *testing.T) {
	idx := NewCheckIndex([]CheckResult{
		{" f01 ", true},
		{`="f02"`, true},
	})
	assert.True(t, idx["f01"])
	assert.True(t, idx["f02"])

	sub := Submission{
		Entries: []IdentifierEntry{{Position: 1, Identifier: "f01"}, {Position: 2, Identifier: "f02"}},
		Results: []CheckResult{{"f01\t", true}, {`="f02"`, true}},
	}
	got := NewValidator(NewListingIndex(nil)).Validate(sub, NewCheckIndex(sub.Results))
	assert.True(t, got.Valid, "errors: %v", got.Messages())
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name      string
		listed    []string
		entries   []IdentifierEntry
		checks    CheckIndex
		wantErrs  []string
		wantRules []Rule
		accepted  []string
	}{
		{
			name:     "all pass",
			entries:  entries("f01", "f02"),
			checks:   CheckIndex{"f01": true, "f02": true},
			accepted: []string{"f01", "f02"},
		},
		{
			name:      "failed check",
			entries:   entries("f01", "f02"),
			checks:    CheckIndex{"f01": true, "f02": false},
			wantErrs:  []string{"f02 failed"},
			wantRules: []Rule{RuleCheckFailed},
			accepted:  []string{"f01", "f02"},
		},
		{
			name:      "missing check result",
			entries:   entries("f01"),
			checks:    CheckIndex{},
			wantErrs:  []string{"f01 failed"},
			wantRules: []Rule{RuleCheckFailed},
			accepted:  []string{"f01"},
		},
		{
			name:      "already listed",
			listed:    []string{"f01"},
			entries:   entries("f01"),
			checks:    CheckIndex{"f01": true},
			wantErrs:  []string{"f01 already listed"},
			wantRules: []Rule{RuleAlreadyListed},
			accepted:  []string{"f01"},
		},
		{
			name:      "repeated within record",
			entries:   entries("f01", "f01"),
			checks:    CheckIndex{"f01": true},
			wantErrs:  []string{"f01 submitted more than once"},
			wantRules: []Rule{RuleDuplicate},
			accepted:  []string{"f01"},
		},
		{
			name:    "all rules accumulate in entry order",
			listed:  []string{"f02"},
			entries: entries("f01", "f02", "f01"),
			checks:  CheckIndex{"f02": true},
			wantErrs: []string{
				"f01 failed",
				"f02 already listed",
				"f01 failed",
				"f01 submitted more than once",
			},
			wantRules: []Rule{RuleCheckFailed, RuleAlreadyListed, RuleCheckFailed, RuleDuplicate},
			accepted:  []string{"f01", "f02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listed := make(ListingIndex)
			for _, id := range tt.listed {
				listed.Add(id)
			}

			res := NewValidator(listed).Validate(Submission{Entries: tt.entries}, tt.checks)

			assert.Equal(t, len(tt.wantErrs) == 0, res.Valid)
			assert.Equal(t, tt.wantErrs, res.Messages())

			rules := make([]Rule, 0, len(res.Errors))
			for _, e := range res.Errors {
				rules = append(rules, e.Rule)
			}
			if tt.wantRules == nil {
				assert.Empty(t, rules)
			} else {
				assert.Equal(t, tt.wantRules, rules)
			}

			var accepted []string
			for _, e := range res.Accepted {
				accepted = append(accepted, e.Identifier)
			}
			assert.Equal(t, tt.accepted, accepted)
		})
	}
}

func TestValidator_NoEntriesRejected(t *testing.T) {
	res := NewValidator(make(ListingIndex)).Validate(Submission{ResponseID: "r1"}, CheckIndex{})

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, RuleNoEntries, res.Errors[0].Rule)
	assert.Equal(t, []string{"no storage provider ids submitted"}, res.Messages())
	assert.Empty(t, res.Accepted)
}

func TestValidator_SeesListingUpdates(t *testing.T) {
	listed := make(ListingIndex)
	v := NewValidator(listed)
	sub := Submission{Entries: entries("f01")}
	checks := CheckIndex{"f01": true}

	require.True(t, v.Validate(sub, checks).Valid)
	listed.Add("f01")

	res := v.Validate(sub, checks)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"f01 already listed"}, res.Messages())
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Identifier: "f01", Rule: RuleCheckFailed, Message: "f01 failed"}
	assert.EqualError(t, err, "f01 failed")
}

func TestListingIndex(t *testing.T) {
	idx := NewListingIndex(nil)
	assert.False(t, idx.Contains("f01"))
	idx.Add("f01")
	assert.True(t, idx.Contains("f01"))

	idx = NewListingIndex([]table.Row{{"sp_id": "f09"}, {"sp_id": ""}, {"sp_id": " f07 "}, {"sp_id": "  "}})
	assert.True(t, idx.Contains("f09"))
	assert.True(t, idx.Contains("f07"))
	assert.False(t, idx.Contains(""))
}

func TestOrganizationKey(t *testing.T) {
	assert.Equal(t, "acme inc", OrganizationKey("  ACME Inc "))
	assert.Equal(t, OrganizationKey("acme"), OrganizationKey("Acme"))
}
