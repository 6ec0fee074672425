package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// RecognizedLeadFields marks an object as contact-like when any of them is present
var RecognizedLeadFields = []string{
	"name", "full_name", "email", "phone", "contact", "profile_url", "headline", "location",
}

// OutputShape is the rendering class of an execution output
type OutputShape string

const (
	OutputShapeString    OutputShape = "string"
	OutputShapeObject    OutputShape = "object"
	OutputShapeLeadArray OutputShape = "lead_array"
)

// LeadStrategy pairs a locator for a candidate sequence with the predicate it must satisfy.
// Adding a provider envelope is a new strategy, not a detector change.
type LeadStrategy struct {
	Name    string
	Extract func(root gjson.Result) gjson.Result
	Matches func(seq gjson.Result) bool
}

// PathLeadStrategy looks for a contact-like sequence at a gjson path ("" for the payload itself)
func PathLeadStrategy(path string) LeadStrategy {
	name := path
	if name == "" {
		name = "top_level"
	}
	return LeadStrategy{
		Name: name,
		Extract: func(root gjson.Result) gjson.Result {
			if path == "" {
				return root
			}
			if !root.IsObject() {
				return gjson.Result{}
			}
			return root.Get(path)
		},
		Matches: IsContactLikeSequence,
	}
}

// IsContactLikeSequence requires a non-empty array whose first element is an object
// holding at least one recognized field with a truthy value
func IsContactLikeSequence(seq gjson.Result) bool {
	if !seq.IsArray() {
		return false
	}
	first := seq.Get("0")
	if !first.IsObject() {
		return false
	}
	for _, field := range RecognizedLeadFields {
		if isTruthy(first.Get(field)) {
			return true
		}
	}
	return false
}

// isTruthy rejects missing, null, false, zero and empty string values
func isTruthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.True, gjson.JSON:
		return true
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	default:
		return false
	}
}

// LeadArray is a detected list of contact-like rows
type LeadArray struct {
	Strategy string
	// Rows keep the index of the source sequence; non-object elements decode to empty rows
	Rows    []map[string]interface{}
	Columns []string
	records []bool
}

// IsRecord reports whether row i came from an object element
func (l *LeadArray) IsRecord(i int) bool {
	return i >= 0 && i < len(l.records) && l.records[i]
}

// Headers returns the display label of each column
func (l *LeadArray) Headers() []string {
	headers := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		headers[i] = FormatColumnHeader(c)
	}
	return headers
}

type LeadDetector struct {
	strategies []LeadStrategy
}

// NewLeadDetector tries the top level, then "leads", then "data", then any extra strategies in order
func NewLeadDetector(extra ...LeadStrategy) *LeadDetector {
	strategies := []LeadStrategy{
		PathLeadStrategy(""),
		PathLeadStrategy("leads"),
		PathLeadStrategy("data"),
	}
	return &LeadDetector{strategies: append(strategies, extra...)}
}

var defaultLeadDetector = NewLeadDetector()

// Detect returns the first sequence accepted by a strategy
func (d *LeadDetector) Detect(raw []byte) (*LeadArray, bool) {
	if len(bytes.TrimSpace(raw)) == 0 || !gjson.ValidBytes(raw) {
		return nil, false
	}
	root := gjson.ParseBytes(raw)

	for _, s := range d.strategies {
		seq := s.Extract(root)
		if !s.Matches(seq) {
			continue
		}
		leads, err := decodeLeadRows(seq)
		if err != nil {
			continue
		}
		leads.Strategy = s.Name
		return leads, true
	}
	return nil, false
}

// DetectLeads runs the default detector over a JSON payload
func DetectLeads(raw []byte) (*LeadArray, bool) {
	return defaultLeadDetector.Detect(raw)
}

// DetectLeadsInValue marshals a decoded payload and runs the default detector
func DetectLeadsInValue(payload interface{}) (*LeadArray, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false
	}
	return DetectLeads(raw)
}

// ClassifyOutput resolves the rendering class of an execution output once
func ClassifyOutput(raw []byte) OutputShape {
	if len(bytes.TrimSpace(raw)) == 0 || !gjson.ValidBytes(raw) {
		return OutputShapeString
	}
	if gjson.ParseBytes(raw).Type == gjson.String {
		return OutputShapeString
	}
	if _, ok := DetectLeads(raw); ok {
		return OutputShapeLeadArray
	}
	return OutputShapeObject
}

// decodeLeadRows walks the sequence with gjson so columns keep document order
func decodeLeadRows(seq gjson.Result) (*LeadArray, error) {
	leads := &LeadArray{}
	seen := map[string]bool{}
	var decodeErr error

	seq.ForEach(func(_, item gjson.Result) bool {
		row := map[string]interface{}{}
		if item.IsObject() {
			item.ForEach(func(key, _ gjson.Result) bool {
				if !seen[key.String()] {
					seen[key.String()] = true
					leads.Columns = append(leads.Columns, key.String())
				}
				return true
			})

			dec := json.NewDecoder(strings.NewReader(item.Raw))
			dec.UseNumber()
			if err := dec.Decode(&row); err != nil {
				decodeErr = fmt.Errorf("failed to decode lead row: %w", err)
				return false
			}
		}
		leads.Rows = append(leads.Rows, row)
		leads.records = append(leads.records, item.IsObject())
		return true
	})

	if decodeErr != nil {
		return nil, decodeErr
	}
	return leads, nil
}

// FormatColumnHeader upper-cases the first letter and turns underscores into spaces
func FormatColumnHeader(key string) string {
	if key == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(key)
	return string(unicode.ToUpper(r)) + strings.ReplaceAll(key[size:], "_", " ")
}
