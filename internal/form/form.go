// Package form builds validation rulesets from a book's field configuration
// and turns flat key/value submissions into transactions.
package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lekha-app/lekha/internal/common"
	"github.com/lekha-app/lekha/internal/model"
)

// FieldError is a per-field validation failure. Label carries the field's
// display name, not its key, so it can be shown to the user directly.
type FieldError struct {
	Label   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Label, e.Message)
}

// Validate checks a flat key→value submission against the schema. One rule is
// built per visible field; invisible fields are neither validated nor
// collected. Errors never block other fields from being collected.
func Validate(fields []model.FieldConfig, input map[string]string) (map[string]model.Value, []FieldError) {
	values := make(map[string]model.Value)
	var errs []FieldError

	for _, f := range fields {
		if !f.Visible {
			continue
		}

		raw, ok := input[f.Key]
		raw = strings.TrimSpace(raw)

		if raw == "" {
			if f.Required {
				errs = append(errs, FieldError{Label: f.Label, Message: "is required"})
				continue
			}
			// Empty string is a valid "no value" for optional fields.
			_ = ok
			continue
		}

		val, err := coerce(f, raw)
		if err != nil {
			errs = append(errs, FieldError{Label: f.Label, Message: err.Error()})
			continue
		}
		values[f.Key] = val
	}

	return values, errs
}

// CoerceValue converts one raw string into the field's typed value. It is
// used for partial edits where full-form validation does not apply.
func CoerceValue(f model.FieldConfig, raw string) (model.Value, error) {
	return coerce(f, raw)
}

func coerce(f model.FieldConfig, raw string) (model.Value, error) {
	switch f.Type {
	case model.FieldNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Null(), fmt.Errorf("must be a number")
		}
		if f.Validation != nil {
			if f.Validation.Min != nil && n < *f.Validation.Min {
				return model.Null(), fmt.Errorf("must be at least %g", *f.Validation.Min)
			}
			if f.Validation.Max != nil && n > *f.Validation.Max {
				return model.Null(), fmt.Errorf("must be at most %g", *f.Validation.Max)
			}
		}
		return model.Number(n), nil

	case model.FieldCheckbox:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return model.Null(), fmt.Errorf("must be true or false")
		}
		return model.Bool(b), nil

	case model.FieldText:
		if f.Validation != nil && f.Validation.Regex != "" {
			ok, err := common.MatchRegex(f.Validation.Regex, raw)
			if err != nil || !ok {
				return model.Null(), fmt.Errorf("invalid format")
			}
		}
		return model.Text(raw), nil

	case model.FieldDate, model.FieldDropdown, model.FieldFile:
		// Date wire format is left to the caller; dropdown membership is a UI
		// concern; file values are unconstrained with validation deferred.
		return model.Text(raw), nil

	default:
		return model.Text(raw), nil
	}
}
