package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/spregistry/internal/csvio"
	"github.com/JonMunkholm/spregistry/internal/geo"
)

// ErrBatchParse is returned when the submission batch cannot be decoded.
var ErrBatchParse = errors.New("invalid batch")

// batchRecord is one element of the batch file:
//
//	{"fields": {"responseId": "...", "1_minerid": "f01234", ...},
//	 "results": [{"identifier": "f01234", "success": true}]}
type batchRecord struct {
	Fields  map[string]any `json:"fields"`
	Results []CheckResult  `json:"results"`
}

// ParseBatch decodes a JSON batch of submissions. Field values may be JSON
// strings, numbers, booleans or null; all are converted to cleaned strings.
func ParseBatch(r io.Reader) ([]Submission, error) {
	dec := json.NewDecoder(csvio.Sanitize(r))
	dec.UseNumber()

	var records []batchRecord
	if err := dec.Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrBatchParse)
		}
		return nil, fmt.Errorf("%w: %w", ErrBatchParse, err)
	}

	subs := make([]Submission, 0, len(records))
	for i, rec := range records {
		fields, err := stringFields(rec.Fields)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrBatchParse, i+1, err)
		}
		subs = append(subs, NewSubmission(fields, rec.Results))
	}
	return subs, nil
}

// NewSubmission builds a Submission from form fields. Identifier slots with
// a blank identifier are treated as absent.
func NewSubmission(fields map[string]string, results []CheckResult) Submission {
	clean := make(map[string]string, len(fields))
	for k, v := range fields {
		clean[k] = csvio.CleanCell(v)
	}

	sub := Submission{
		ResponseID:   clean[FieldResponseID],
		Timestamp:    clean[FieldTimestamp],
		Organization: clean[FieldOrganization],
		Contact: Contact{
			Name:   clean[FieldContactName],
			Handle: clean[FieldContactHandle],
			Email:  clean[FieldContactEmail],
		},
		Results: results,
		Fields:  clean,
	}

	for i := 1; i <= MaxIdentifierEntries; i++ {
		id := clean[MinerIDField(i)]
		if id == "" {
			continue
		}
		sub.Entries = append(sub.Entries, IdentifierEntry{
			Position:   i,
			Identifier: id,
			City:       clean[CityField(i)],
			Country:    geo.NormalizeCountry(clean[CountryField(i)]),
		})
	}

	return sub
}

func stringFields(in map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			return nil, fmt.Errorf("field %q: unsupported value type %T", k, v)
		}
	}
	return out, nil
}
