package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestDetectLeads(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		want     bool
		strategy string
	}{
		{"empty array", `[]`, false, ""},
		{"no recognized field", `[{"foo":1}]`, false, ""},
		{"top level name", `[{"name":"A"}]`, true, "top_level"},
		{"nested under data", `{"data":[{"email":"a@b.com"}]}`, true, "data"},
		{"nested under leads", `{"leads":[{"headline":"x"}]}`, true, "leads"},
		{"first element null", `[null,{"name":"A"}]`, false, ""},
		{"first element scalar", `["a",{"name":"A"}]`, false, ""},
		{"string payload", `"hello"`, false, ""},
		{"plain object", `{"summary":"done"}`, false, ""},
		{"data not a list", `{"data":{"name":"A"}}`, false, ""},
		{"two levels down is ignored", `{"result":{"leads":[{"name":"A"}]}}`, false, ""},
		{"profile_url only", `[{"profile_url":"https://x"}]`, true, "top_level"},
		{"leads preferred over data", `{"data":[{"name":"D"}],"leads":[{"name":"L"}]}`, true, "leads"},
		{"recognized field is null", `[{"name":null}]`, false, ""},
		{"recognized field is empty", `[{"name":"","email":null}]`, false, ""},
		{"null next to a value", `[{"name":null,"email":"a@b.com"}]`, true, "top_level"},
		{"invalid json", `{"data":[`, false, ""},
		{"empty input", ``, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leads, ok := DetectLeads([]byte(tt.payload))
			assert.Equal(t, tt.want, ok)
			if tt.want {
				require.NotNil(t, leads)
				assert.Equal(t, tt.strategy, leads.Strategy)
			}
		})
	}
}

func TestDetectLeads_RowsAndColumns(t *testing.T) {
	payload := `{"leads":[
		{"name":"Ann","company_name":"Acme","email":"ann@acme.com"},
		"not an object",
		{"name":"Bob","profile_url":"https://in/bob","company_name":"Initech"}
	]}`

	leads, ok := DetectLeads([]byte(payload))
	require.True(t, ok)

	require.Len(t, leads.Rows, 3)
	assert.Equal(t, "Ann", leads.Rows[0]["name"])
	assert.Empty(t, leads.Rows[1])
	assert.True(t, leads.IsRecord(0))
	assert.False(t, leads.IsRecord(1))
	assert.True(t, leads.IsRecord(2))
	assert.False(t, leads.IsRecord(3))
	assert.Equal(t, "Initech", leads.Rows[2]["company_name"])

	assert.Equal(t, []string{"name", "company_name", "email", "profile_url"}, leads.Columns)
	assert.Equal(t, []string{"Name", "Company name", "Email", "Profile url"}, leads.Headers())
}

func TestLeadDetector_ExtraStrategy(t *testing.T) {
	payload := []byte(`{"result":{"people":[{"full_name":"Cy"}]}}`)

	_, ok := DetectLeads(payload)
	assert.False(t, ok)

	detector := NewLeadDetector(PathLeadStrategy("result.people"))
	leads, ok := detector.Detect(payload)
	require.True(t, ok)
	assert.Equal(t, "result.people", leads.Strategy)
	assert.Equal(t, "Cy", leads.Rows[0]["full_name"])

	custom := LeadStrategy{
		Name:    "any_objects",
		Extract: func(root gjson.Result) gjson.Result { return root.Get("items") },
		Matches: func(seq gjson.Result) bool { return seq.IsArray() && len(seq.Array()) > 0 },
	}
	leads, ok = NewLeadDetector(custom).Detect([]byte(`{"items":[{"foo":1}]}`))
	require.True(t, ok)
	assert.Equal(t, "any_objects", leads.Strategy)
}

func TestDetectLeadsInValue(t *testing.T) {
	var payload interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"data":[{"email":"a@b.com"}]}`), &payload))

	leads, ok := DetectLeadsInValue(payload)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", leads.Rows[0]["email"])

	_, ok = DetectLeadsInValue(make(chan int))
	assert.False(t, ok)
}

func TestClassifyOutput(t *testing.T) {
	assert.Equal(t, OutputShapeString, ClassifyOutput([]byte(`"plain text"`)))
	assert.Equal(t, OutputShapeString, ClassifyOutput(nil))
	assert.Equal(t, OutputShapeString, ClassifyOutput([]byte(`not json`)))
	assert.Equal(t, OutputShapeObject, ClassifyOutput([]byte(`{"summary":"ok"}`)))
	assert.Equal(t, OutputShapeObject, ClassifyOutput([]byte(`[{"foo":1}]`)))
	assert.Equal(t, OutputShapeObject, ClassifyOutput([]byte(`42`)))
	assert.Equal(t, OutputShapeLeadArray, ClassifyOutput([]byte(`[{"name":"A"}]`)))
}

func TestFormatColumnHeader(t *testing.T) {
	assert.Equal(t, "Company name", FormatColumnHeader("company_name"))
	assert.Equal(t, "Profile url", FormatColumnHeader("profile_url"))
	assert.Equal(t, "Email", FormatColumnHeader("email"))
	assert.Equal(t, "FirstName", FormatColumnHeader("firstName"))
	assert.Equal(t, "Étape", FormatColumnHeader("étape"))
	assert.Equal(t, "", FormatColumnHeader(""))
}
