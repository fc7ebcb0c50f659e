package notifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/spregistry/internal/core"
)

// TitlePrefix starts every issue title; the organization name follows.
const TitlePrefix = "Storage provider registration failed: "

// Report is a rendered issue.
type Report struct {
	Title string
	Body  string
}

// leading lists the form fields shown first in the field table, in order.
var leading = []string{
	core.FieldResponseID,
	core.FieldTimestamp,
	core.FieldOrganization,
	core.FieldContactName,
	core.FieldContactHandle,
	core.FieldContactEmail,
}

// Render builds the issue for a rejected submission.
func Render(f core.Failure) Report {
	sub := f.Submission
	org := sub.Organization
	if org == "" {
		org = "(no organization)"
	}

	var b strings.Builder

	b.WriteString("## Errors\n\n")
	for _, e := range f.Errors {
		fmt.Fprintf(&b, "- %s\n", escape(e))
	}

	b.WriteString("\n## Check results\n\n")
	if len(sub.Entries) == 0 {
		b.WriteString("_No storage provider ids submitted._\n")
	} else {
		checks := core.NewCheckIndex(sub.Results)
		b.WriteString("| # | Storage provider | City | Country | Check |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, e := range sub.Entries {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				e.Position, cell(e.Identifier), cell(e.City), cell(e.Country), checkLabel(checks, e.Identifier))
		}
	}

	b.WriteString("\n## Submission\n\n")
	b.WriteString("| Field | Value |\n")
	b.WriteString("|---|---|\n")
	for _, k := range fieldOrder(sub.Fields) {
		fmt.Fprintf(&b, "| %s | %s |\n", cell(k), cell(sub.Fields[k]))
	}

	return Report{
		Title: TitlePrefix + org,
		Body:  b.String(),
	}
}

func checkLabel(checks core.CheckIndex, id string) string {
	ok, found := checks[id]
	switch {
	case !found:
		return "missing"
	case ok:
		return "passed"
	default:
		return "failed"
	}
}

// fieldOrder returns the leading fields that are present followed by every
// other field sorted by key.
func fieldOrder(fields map[string]string) []string {
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(leading))
	for _, k := range leading {
		if _, ok := fields[k]; ok {
			out = append(out, k)
			seen[k] = true
		}
	}

	rest := make([]string, 0, len(fields))
	for k := range fields {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>")

func cell(s string) string {
	if s == "" {
		return " "
	}
	return cellReplacer.Replace(escape(s))
}

var mentionReplacer = strings.NewReplacer("@", "@\u200b")

// escape keeps user input from mentioning GitHub users or teams.
func escape(s string) string {
	return mentionReplacer.Replace(s)
}
