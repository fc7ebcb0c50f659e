package notifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/spregistry/internal/core"
)

func failure() core.Failure {
	sub := core.NewSubmission(map[string]string{
		"responseId":                         "r1",
		"timestamp":                          "2024-02-29 09:00:00",
		"0_storage_provider_operator_name":   "Acme | Storage",
		"0_your_name":                        "Ann",
		"0_your_handle_on_filecoin_io_slack": "@ann",
		"0_your_email":                       "ann@acme.io",
		"1_minerid":                          "f01",
		"1_city":                             "Berlin",
		"1_country":                          "DE",
		"2_minerid":                          "f02",
		"2_city":                             "Paris",
		"2_country":                          "FR",
		"3_minerid":                          "f03",
		"zz_comment":                         "line one\nline two",
	}, []core.CheckResult{{Identifier: "f01", Success: true}, {Identifier: "f02", Success: false}})

	return core.Failure{Submission: sub, Errors: []string{"f02 failed", "f03 failed"}}
}

func TestRender_Title(t *testing.T) {
	r := Render(failure())
	assert.Equal(t, "Storage provider registration failed: Acme | Storage", r.Title)

	r = Render(core.Failure{})
	assert.Equal(t, TitlePrefix+"(no organization)", r.Title)
}

func TestRender_Body(t *testing.T) {
	body := Render(failure()).Body

	assert.Contains(t, body, "## Errors\n\n- f02 failed\n- f03 failed\n")
	assert.Contains(t, body, "| 1 | f01 | Berlin | DE | passed |")
	assert.Contains(t, body, "| 2 | f02 | Paris | FR | failed |")
	assert.Contains(t, body, "| 3 | f03 |   |   | missing |")
	assert.Contains(t, body, `| 0_storage_provider_operator_name | Acme \| Storage |`)
	assert.Contains(t, body, "| zz_comment | line one<br>line two |")
	assert.NotContains(t, body, "@ann", "mentions are neutralized")

	// leading fields come first, in form order
	resp := strings.Index(body, "| responseId |")
	email := strings.Index(body, "| 0_your_email |")
	miner := strings.Index(body, "| 1_minerid |")
	assert.True(t, resp < email && email < miner, "unexpected field order:\n%s", body)
}

func TestRender_NoEntries(t *testing.T) {
	body := Render(core.Failure{Errors: []string{core.NoEntriesMessage}}).Body
	assert.Contains(t, body, "_No storage provider ids submitted._")
}
