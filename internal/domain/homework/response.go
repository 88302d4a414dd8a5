package homework

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	keyHomeworks   = "homeworks"
	keyCurrentDate = "current_date"
)

// ListPolicy decides how a top-level JSON array is normalized into the single
// response object. The API has been seen answering with a one-element list.
type ListPolicy int

const (
	// TakeFirstElement unwraps the first element of a top-level list.
	TakeFirstElement ListPolicy = iota
	// RejectList treats any top-level list as an unexpected response.
	RejectList
)

// ParseListPolicy maps "take_first" (or "") and "reject" to a ListPolicy.
func ParseListPolicy(name string) (ListPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "take_first":
		return TakeFirstElement, nil
	case "reject":
		return RejectList, nil
	default:
		return TakeFirstElement, errors.Newf("unknown list policy %q", name)
	}
}

// Validator checks the shape of a decoded response.
type Validator struct {
	Policy ListPolicy
}

// Validate runs the default Validator.
func Validate(raw any) (Response, error) {
	return Validator{Policy: TakeFirstElement}.Validate(raw)
}

// Normalize reduces raw to the single response object according to the policy.
func (v Validator) Normalize(raw any) (map[string]any, error) {
	if list, ok := raw.([]any); ok {
		if v.Policy == RejectList {
			return nil, errors.Wrap(ErrUnexpectedResponse, "top-level list is not accepted")
		}
		if len(list) == 0 {
			return nil, errors.Wrap(ErrEmptyResponse, "top-level list has no elements")
		}
		raw = list[0]
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrUnexpectedResponse, "got %T", raw)
	}
	return obj, nil
}

// Validate extracts the homework list and the server cursor from raw.
// An explicit empty "homeworks" list is a valid result meaning nothing changed.
func (v Validator) Validate(raw any) (Response, error) {
	obj, err := v.Normalize(raw)
	if err != nil {
		return Response{}, err
	}
	if len(obj) == 0 {
		return Response{}, ErrEmptyResponse
	}

	value := obj[keyHomeworks]
	homeworks, isList := value.([]any)
	if !isList {
		// absent, null and other falsy values all mean the key is missing
		if isFalsy(value) {
			return Response{}, ErrMissingHomeworksKey
		}
		return Response{}, errors.Wrapf(ErrInvalidHomeworks, "got %T", value)
	}

	return Response{
		Homeworks:   homeworks,
		CurrentDate: cursorFrom(obj[keyCurrentDate]),
	}, nil
}

// isFalsy mirrors JSON truthiness: null, false, 0, "" and empty containers.
func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case float64:
		return t == 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

func cursorFrom(v any) *int64 {
	var n int64
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return nil
		}
		n = i
	case float64:
		if t != math.Trunc(t) {
			return nil
		}
		n = int64(t)
	case int64:
		n = t
	case int:
		n = int64(t)
	default:
		return nil
	}
	return &n
}
