package dispatch

import (
	"bytes"
	"encoding/json"

	"github.com/softgrove/graft/internal/model"
)

// Payload is the raw argument map of one dispatched operation.
type Payload map[string]any

// decode maps a payload onto a typed request struct. Unknown fields and
// type mismatches are invalid_argument: the verb's struct is the schema.
func decode[T any](p Payload) (T, error) {
	var req T
	if p == nil {
		return req, nil
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return req, model.NewInvalidArgument("payload is not JSON-representable: %v", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return req, model.NewInvalidArgument("malformed payload: %v", err)
	}
	return req, nil
}

// checkRequired validates that each named field is present, and for
// string fields non-empty, before the handler runs.
func checkRequired(op string, p Payload, fields []string) error {
	for _, f := range fields {
		v, ok := p[f]
		if !ok {
			return model.NewInvalidArgument("%s: %q is required", op, f).WithDetail("field", f)
		}
		if s, isStr := v.(string); isStr && s == "" {
			return model.NewInvalidArgument("%s: %q must not be empty", op, f).WithDetail("field", f)
		}
	}
	return nil
}
