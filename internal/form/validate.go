package form

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Problem is one rejected field.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field in schema order.
type ValidationError struct {
	Problems []Problem `json:"problems"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Code + ": " + p.Message
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Has reports whether code was rejected.
func (e *ValidationError) Has(code string) bool {
	for _, p := range e.Problems {
		if p.Code == code {
			return true
		}
	}
	return false
}

// Validate checks submitted values against the schema. Values for codes the
// schema does not know are rejected; missing optional fields are fine.
func (s Schema) Validate(values map[string]string) error {
	var problems []Problem
	for _, f := range s.Fields {
		v := strings.TrimSpace(values[f.Code])
		if v == "" {
			if f.Required {
				problems = append(problems, Problem{Code: f.Code, Message: f.Label + " is required"})
			}
			continue
		}
		switch {
		case f.Type == TypeEmail:
			if err := validate.Var(v, "email"); err != nil {
				problems = append(problems, Problem{Code: f.Code, Message: fmt.Sprintf("%q is not a valid email address", v)})
			}
		case f.Type.HasOptions():
			if !hasValue(f.Options, v) {
				problems = append(problems, Problem{Code: f.Code, Message: fmt.Sprintf("%q is not one of %s", v, strings.Join(optionValues(f.Options), ", "))})
			}
		}
	}
	for _, code := range slices.Sorted(maps.Keys(values)) {
		if _, ok := s.Field(code); !ok {
			problems = append(problems, Problem{Code: code, Message: "unknown field"})
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

func hasValue(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

func optionValues(opts []Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}
