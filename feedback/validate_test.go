package feedback

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func decodeViolations(t *testing.T, body string) []Violation {
	t.Helper()
	_, err := DecodeRequest([]byte(body))
	if err == nil {
		t.Fatalf("expected validation error for %s", body)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	return ve.Violations
}

func TestDecodeRequest_OK(t *testing.T) {
	items, err := DecodeRequest([]byte(`{"feedback_items":[
		{"item":"a","category":"UX","priority":"critical","original_quote":"qa"},
		{"item":"b","category":"Tech","priority":"improvement","original_quote":"qb"}
	]}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	want := []Item{
		{Item: "a", Category: CategoryUX, Priority: PriorityCritical, OriginalQuote: "qa"},
		{Item: "b", Category: CategoryTech, Priority: PriorityImprovement, OriginalQuote: "qb"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRequest_EmptyList(t *testing.T) {
	items, err := DecodeRequest([]byte(`{"feedback_items":[]}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestDecodeRequest_InvalidCategory(t *testing.T) {
	vs := decodeViolations(t, `{"feedback_items":[{"item":"a","category":"Legal","priority":"critical","original_quote":"q"}]}`)
	want := []Violation{{
		Type:  "literal_error",
		Loc:   []any{"body", "feedback_items", 0, "category"},
		Msg:   "Input should be 'UI', 'UX', 'Copy' or 'Tech'",
		Input: "Legal",
		Ctx:   map[string]any{"expected": "'UI', 'UX', 'Copy' or 'Tech'"},
	}}
	if diff := cmp.Diff(want, vs); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRequest_ReportsEveryViolation(t *testing.T) {
	vs := decodeViolations(t, `{"feedback_items":[
		{"item":1,"category":"UI","priority":"urgent"},
		"not-an-object"
	]}`)

	type key struct {
		typ string
		loc string
	}
	var got []key
	for _, v := range vs {
		got = append(got, key{v.Type, formatLoc(v.Loc)})
	}
	want := []key{
		{"string_type", "body.feedback_items.0.item"},
		{"literal_error", "body.feedback_items.0.priority"},
		{"missing", "body.feedback_items.0.original_quote"},
		{"model_attributes_type", "body.feedback_items.1"},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(key{})); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRequest_BodyShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		typ  string
	}{
		{"empty", ``, "missing"},
		{"malformed", `{"feedback_items":`, "json_invalid"},
		{"array body", `[]`, "model_attributes_type"},
		{"missing list", `{}`, "missing"},
		{"list wrong type", `{"feedback_items":"x"}`, "list_type"},
		{"null list", `{"feedback_items":null}`, "list_type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vs := decodeViolations(t, tc.body)
			if len(vs) != 1 || vs[0].Type != tc.typ {
				t.Fatalf("expected single %s violation, got %+v", tc.typ, vs)
			}
			if vs[0].Loc[0] != "body" {
				t.Fatalf("loc should start at body, got %v", vs[0].Loc)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Violations: []Violation{{Loc: []any{"body", "feedback_items"}, Msg: "Field required"}}}
	if got, want := err.Error(), "invalid feedback request: body.feedback_items: Field required"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
