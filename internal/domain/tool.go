package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

//go:generate mockgen -destination mocks/mock_tool_service.go -package mocks github.com/aihubhq/aihub/internal/domain ToolService
//go:generate mockgen -destination mocks/mock_tool_repository.go -package mocks github.com/aihubhq/aihub/internal/domain ToolRepository

// FieldKind is the closed set of input widgets a tool form can use
type FieldKind string

const (
	FieldKindText     FieldKind = "text"
	FieldKindTextarea FieldKind = "textarea"
	FieldKindSelect   FieldKind = "select"
	FieldKindCheckbox FieldKind = "checkbox"
	FieldKindNumber   FieldKind = "number"
)

func (k FieldKind) IsValid() bool {
	switch k {
	case FieldKindText, FieldKindTextarea, FieldKindSelect, FieldKindCheckbox, FieldKindNumber:
		return true
	}
	return false
}

// FieldDescriptor describes one input of a tool form
type FieldDescriptor struct {
	Name         string      `json:"name"`
	Type         FieldKind   `json:"type"`
	Label        string      `json:"label"`
	Placeholder  string      `json:"placeholder,omitempty"`
	Required     bool        `json:"required,omitempty"`
	Options      []string    `json:"options,omitempty"`
	DefaultValue interface{} `json:"defaultValue,omitempty"`
}

// OutputDescriptor describes how a tool's output is presented
type OutputDescriptor struct {
	Type   string `json:"type,omitempty"`
	Label  string `json:"label,omitempty"`
	Format string `json:"format,omitempty"`
}

const ExecutionTypeWebhook = "webhook"

// Tool is a read-only catalog entry
type Tool struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Category      *string           `json:"category"`
	CreditCost    int               `json:"credit_cost"`
	ExecutionType string            `json:"execution_type"`
	InputSchema   []FieldDescriptor `json:"input_schema"`
	OutputSchema  OutputDescriptor  `json:"output_schema"`
	Rating        *float64          `json:"rating"`
	TotalUses     int               `json:"total_uses"`
	WebhookLink   string            `json:"-"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ParseInputSchema accepts a bare list of fields or an object with a "fields" list.
// An empty or null schema yields no fields.
func ParseInputSchema(raw []byte) ([]FieldDescriptor, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return []FieldDescriptor{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("input schema is not valid JSON")
	}

	root := gjson.ParseBytes(raw)
	var list gjson.Result
	switch {
	case root.Type == gjson.Null:
		return []FieldDescriptor{}, nil
	case root.IsArray():
		list = root
	case root.IsObject() && root.Get("fields").IsArray():
		list = root.Get("fields")
	default:
		return nil, fmt.Errorf("input schema must be a list of fields")
	}

	fields := []FieldDescriptor{}
	if err := json.Unmarshal([]byte(list.Raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode input schema: %w", err)
	}
	return fields, nil
}

// ParseOutputSchema tolerates a missing schema and a bare type string
func ParseOutputSchema(raw []byte) (OutputDescriptor, error) {
	var out OutputDescriptor
	if len(strings.TrimSpace(string(raw))) == 0 {
		return out, nil
	}
	if !gjson.ValidBytes(raw) {
		return out, fmt.Errorf("output schema is not valid JSON")
	}

	root := gjson.ParseBytes(raw)
	switch root.Type {
	case gjson.Null:
		return out, nil
	case gjson.String:
		out.Type = root.String()
		return out, nil
	}
	if !root.IsObject() {
		return out, fmt.Errorf("output schema must be an object")
	}

	out.Type = root.Get("type").String()
	out.Label = root.Get("label").String()
	out.Format = root.Get("format").String()
	return out, nil
}

// Validate checks the catalog invariants
func (t *Tool) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tool id is required")
	}
	if t.CreditCost < 0 {
		return fmt.Errorf("tool %s has a negative credit cost", t.ID)
	}

	names := make(map[string]bool, len(t.InputSchema))
	for _, f := range t.InputSchema {
		if f.Name == "" {
			return fmt.Errorf("tool %s has an input field without a name", t.ID)
		}
		if names[f.Name] {
			return fmt.Errorf("tool %s has a duplicate input field: %s", t.ID, f.Name)
		}
		names[f.Name] = true

		if !f.Type.IsValid() {
			return fmt.Errorf("tool %s field %s has an unsupported type: %s", t.ID, f.Name, f.Type)
		}
		if f.Type == FieldKindSelect && len(f.Options) == 0 {
			return fmt.Errorf("tool %s select field %s has no options", t.ID, f.Name)
		}
	}
	return nil
}

// InitialFormValues is the state of a freshly rendered form: the default value or ""
func (t *Tool) InitialFormValues() map[string]interface{} {
	values := make(map[string]interface{}, len(t.InputSchema))
	for _, f := range t.InputSchema {
		if isBlank(f.DefaultValue) {
			values[f.Name] = ""
		} else {
			values[f.Name] = f.DefaultValue
		}
	}
	return values
}

// ValidateInput checks submitted values against the input schema and returns the cleaned input.
// Numbers are converted to float64, checkboxes to bool, missing fields take their default.
// Keys outside the schema are dropped.
func (t *Tool) ValidateInput(input map[string]interface{}) (map[string]interface{}, error) {
	cleaned := make(map[string]interface{}, len(t.InputSchema))

	for _, f := range t.InputSchema {
		value, present := input[f.Name]
		if !present || isBlank(value) {
			value = f.DefaultValue
		}

		if isBlank(value) {
			if f.Required {
				return nil, NewValidationError(fmt.Sprintf("%s is required", fieldLabel(f)))
			}
			continue
		}

		switch f.Type {
		case FieldKindNumber:
			n, err := toNumber(value)
			if err != nil {
				return nil, NewValidationError(fmt.Sprintf("%s must be a number", fieldLabel(f)))
			}
			cleaned[f.Name] = n

		case FieldKindCheckbox:
			b, err := toBool(value)
			if err != nil {
				return nil, NewValidationError(fmt.Sprintf("%s must be true or false", fieldLabel(f)))
			}
			if f.Required && !b {
				return nil, NewValidationError(fmt.Sprintf("%s is required", fieldLabel(f)))
			}
			cleaned[f.Name] = b

		case FieldKindSelect:
			s, ok := value.(string)
			if !ok || !containsString(f.Options, s) {
				return nil, NewValidationError(fmt.Sprintf("%s must be one of: %s", fieldLabel(f), strings.Join(f.Options, ", ")))
			}
			cleaned[f.Name] = s

		default:
			s, ok := value.(string)
			if !ok {
				return nil, NewValidationError(fmt.Sprintf("%s must be text", fieldLabel(f)))
			}
			cleaned[f.Name] = s
		}
	}

	return cleaned, nil
}

func fieldLabel(f FieldDescriptor) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func toNumber(v interface{}) (float64, error) {
	var n float64
	switch val := v.(type) {
	case float64:
		n = val
	case int:
		n = float64(val)
	case int64:
		n = float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, err
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, err
		}
		n = f
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return n, nil
}

func toBool(v interface{}) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(val))
	}
	return false, fmt.Errorf("not a boolean: %T", v)
}

type ListToolsRequest struct {
	Category string `json:"category,omitempty"`
}

type ToolService interface {
	List(ctx context.Context, req ListToolsRequest) ([]*Tool, error)
	Get(ctx context.Context, id string) (*Tool, error)
	// Invalidate drops cached catalog entries
	Invalidate()
}

type ToolRepository interface {
	List(ctx context.Context, category string) ([]*Tool, error)
	GetByID(ctx context.Context, id string) (*Tool, error)
}
