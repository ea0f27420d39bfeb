package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError describes one schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Error joins the violations into one line.
func (r *ValidationResult) Error() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// MustCompile compiles a schema literal; it panics on an invalid schema
// because schemas are package-level constants.
func MustCompile(name, source string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

// ValidateBytes checks a raw JSON document. A document that is not JSON at
// all is reported as an error rather than a result.
func (s *Schema) ValidateBytes(doc []byte) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", s.name, err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out, nil
}

// CacheEntrySchema matches {"timestamp": <millis>, "companies": [...]}.
var CacheEntrySchema = MustCompile("cache-entry", `{
  "type": "object",
  "required": ["timestamp", "companies"],
  "properties": {
    "timestamp": {"type": "integer", "minimum": 0},
    "companies": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["ID", "name", "company_type", "rating", "days_old", "employees",
                     "capacity", "daily_income", "weekly_income", "daily_customers",
                     "weekly_customers"],
        "properties": {
          "ID": {"type": "integer"},
          "name": {"type": "string"},
          "company_type": {"type": "integer"},
          "rating": {"type": "number"},
          "days_old": {"type": "integer"},
          "employees": {"type": "integer"},
          "capacity": {"type": "integer"},
          "daily_income": {"type": "integer"},
          "weekly_income": {"type": "integer"},
          "daily_customers": {"type": "integer"},
          "weekly_customers": {"type": "integer"}
        }
      }
    }
  }
}`)

// SessionStateSchema only requires the persisted session to be an object.
// Each section is checked on its own with SessionSectionSchemas so one bad
// section does not discard the others.
var SessionStateSchema = MustCompile("session-state", `{"type": "object"}`)

// SessionSectionSchemas are type checks per top-level session key. Value
// checks (known sort field, min <= max) happen when the session is loaded.
var SessionSectionSchemas = map[string]*Schema{
	"selectedType": MustCompile("session-selected-type", `{"type": "integer"}`),
	"apiKey":       MustCompile("session-api-key", `{"type": "string"}`),
	"filters": MustCompile("session-filters", `{
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "minStars": {"type": "number"},
    "maxStars": {"type": ["number", "null"]},
    "minDailyIncome": {"type": "number"},
    "maxDailyIncome": {"type": ["number", "null"]},
    "minWeeklyIncome": {"type": "number"},
    "maxWeeklyIncome": {"type": ["number", "null"]},
    "minDailyCustomers": {"type": "number"},
    "maxDailyCustomers": {"type": ["number", "null"]},
    "minAge": {"type": "number"},
    "maxAge": {"type": ["number", "null"]}
  }
}`),
	"sort": MustCompile("session-sort", `{
  "type": "object",
  "properties": {
    "field": {"type": "string"},
    "direction": {"type": "string"}
  }
}`),
	"marked": MustCompile("session-marked", `{"type": "array", "items": {"type": "integer"}}`),
}
