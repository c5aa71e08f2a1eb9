package feedback

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Violation is a single strict-decoding failure. Loc is the path of the
// offending value starting at "body", with object keys as strings and array
// indexes as ints.
type Violation struct {
	Type  string         `json:"type"`
	Loc   []any          `json:"loc"`
	Msg   string         `json:"msg"`
	Input any            `json:"input"`
	Ctx   map[string]any `json:"ctx,omitempty"`
}

// ValidationError reports every violation found in a request body.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "invalid feedback request"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", formatLoc(v.Loc), v.Msg))
	}
	return fmt.Sprintf("invalid feedback request: %s", strings.Join(parts, "; "))
}

func formatLoc(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, p := range loc {
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ".")
}

const (
	msgFieldRequired = "Field required"
	msgNotObject     = "Input should be a valid dictionary or object to extract fields from"
	msgNotList       = "Input should be a valid list"
	msgNotString     = "Input should be a valid string"
)

// itemFields is the field order used when reporting violations so the
// output is stable regardless of map iteration.
var itemFields = []string{"item", "category", "priority", "original_quote"}

// DecodeRequest strictly decodes a {"feedback_items": [...]} body. Every item
// must carry all four fields as strings, and category and priority must be
// one of the recognized values. On failure the returned error is a
// *ValidationError listing every violation.
func DecodeRequest(body []byte) ([]Item, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &ValidationError{Violations: []Violation{{
			Type: "missing", Loc: []any{"body"}, Msg: msgFieldRequired, Input: nil,
		}}}
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		loc := []any{"body"}
		var se *json.SyntaxError
		if errors.As(err, &se) {
			loc = append(loc, int(se.Offset))
		}
		return nil, &ValidationError{Violations: []Violation{{
			Type:  "json_invalid",
			Loc:   loc,
			Msg:   "JSON decode error",
			Input: map[string]any{},
			Ctx:   map[string]any{"error": err.Error()},
		}}}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{Violations: []Violation{{
			Type: "model_attributes_type", Loc: []any{"body"}, Msg: msgNotObject, Input: raw,
		}}}
	}

	list, present := obj["feedback_items"]
	if !present {
		return nil, &ValidationError{Violations: []Violation{{
			Type: "missing", Loc: []any{"body", "feedback_items"}, Msg: msgFieldRequired, Input: obj,
		}}}
	}
	elems, ok := list.([]any)
	if !ok {
		return nil, &ValidationError{Violations: []Violation{{
			Type: "list_type", Loc: []any{"body", "feedback_items"}, Msg: msgNotList, Input: list,
		}}}
	}

	var violations []Violation
	items := make([]Item, 0, len(elems))
	for i, el := range elems {
		it, vs := decodeStrictItem(el, []any{"body", "feedback_items", i})
		violations = append(violations, vs...)
		items = append(items, it)
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return items, nil
}

func decodeStrictItem(el any, loc []any) (Item, []Violation) {
	m, ok := el.(map[string]any)
	if !ok {
		return Item{}, []Violation{{Type: "model_attributes_type", Loc: loc, Msg: msgNotObject, Input: el}}
	}

	var vs []Violation
	values := make(map[string]string, len(itemFields))
	for _, name := range itemFields {
		fieldLoc := append(append([]any(nil), loc...), name)
		v, present := m[name]
		if !present {
			vs = append(vs, Violation{Type: "missing", Loc: fieldLoc, Msg: msgFieldRequired, Input: m})
			continue
		}
		s, ok := v.(string)
		if !ok {
			vs = append(vs, Violation{Type: "string_type", Loc: fieldLoc, Msg: msgNotString, Input: v})
			continue
		}
		switch name {
		case "category":
			if !Category(s).Valid() {
				vs = append(vs, literalViolation(fieldLoc, s, categoryExpected))
				continue
			}
		case "priority":
			if !Priority(s).Valid() {
				vs = append(vs, literalViolation(fieldLoc, s, priorityExpected))
				continue
			}
		}
		values[name] = s
	}

	return Item{
		Item:          values["item"],
		Category:      Category(values["category"]),
		Priority:      Priority(values["priority"]),
		OriginalQuote: values["original_quote"],
	}, vs
}

var (
	categoryExpected = expectedList(categoryStrings())
	priorityExpected = expectedList(priorityStrings())
)

func literalViolation(loc []any, input, expected string) Violation {
	return Violation{
		Type:  "literal_error",
		Loc:   loc,
		Msg:   "Input should be " + expected,
		Input: input,
		Ctx:   map[string]any{"expected": expected},
	}
}

// expectedList formats values as 'a', 'b' or 'c'.
func expectedList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	if len(quoted) <= 1 {
		return strings.Join(quoted, "")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}

func categoryStrings() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

func priorityStrings() []string {
	out := make([]string, len(priorityOrder))
	for i, p := range priorityOrder {
		out[i] = string(p)
	}
	return out
}
