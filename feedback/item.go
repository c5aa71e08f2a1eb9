package feedback

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Category classifies what area of the product a feedback item is about.
type Category string

const (
	CategoryUI   Category = "UI"
	CategoryUX   Category = "UX"
	CategoryCopy Category = "Copy"
	CategoryTech Category = "Tech"
)

// Priority is the urgency bucket of a feedback item.
type Priority string

const (
	PriorityCritical    Priority = "critical"
	PriorityImprovement Priority = "improvement"
	PriorityNiceToHave  Priority = "nice_to_have"
)

var categories = []Category{CategoryUI, CategoryUX, CategoryCopy, CategoryTech}

// priorityOrder is the fixed display order of sections and badges.
var priorityOrder = []Priority{PriorityCritical, PriorityImprovement, PriorityNiceToHave}

// Categories returns the closed set of recognized categories.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// Priorities returns the recognized priorities in display order.
func Priorities() []Priority {
	return append([]Priority(nil), priorityOrder...)
}

// Valid reports whether c is one of the recognized categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryUI, CategoryUX, CategoryCopy, CategoryTech:
		return true
	default:
		return false
	}
}

// Valid reports whether p is one of the recognized priorities. Items with an
// invalid priority never land in a bucket.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityImprovement, PriorityNiceToHave:
		return true
	default:
		return false
	}
}

// Item is a single classified piece of meeting feedback.
type Item struct {
	Item          string   `json:"item" jsonschema:"description=Descripción del punto de feedback"`
	Category      Category `json:"category" jsonschema:"enum=UI,enum=UX,enum=Copy,enum=Tech,description=Categoría del feedback"`
	Priority      Priority `json:"priority" jsonschema:"enum=critical,enum=improvement,enum=nice_to_have,description=Nivel de prioridad"`
	OriginalQuote string   `json:"original_quote" jsonschema:"description=Frase original de donde se extrae el feedback"`
}

var errItemNotObject = errors.New("feedback item must be a JSON object")

// UnmarshalJSON decodes an item leniently. Absent keys take the defaults
// described in the package documentation. A present key is kept as text
// whatever its JSON type, so a null priority is unrecognized rather than
// defaulted. Only an item that is not a JSON object is rejected.
func (it *Item) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return errItemNotObject
	}
	out := Item{Category: CategoryUI, Priority: PriorityNiceToHave}
	if raw, ok := fields["item"]; ok {
		out.Item = textValue(raw)
	}
	if raw, ok := fields["category"]; ok {
		out.Category = Category(textValue(raw))
	}
	if raw, ok := fields["priority"]; ok {
		out.Priority = Priority(textValue(raw))
	}
	if raw, ok := fields["original_quote"]; ok {
		out.OriginalQuote = textValue(raw)
	}
	*it = out
	return nil
}

// textValue renders a JSON value as display text: strings unquoted, null as
// the empty string, anything else in compact JSON form.
func textValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(bytes.TrimSpace(raw))
	}
	return buf.String()
}

// Buckets holds items partitioned by priority, each in input order.
type Buckets struct {
	Critical    []Item
	Improvement []Item
	NiceToHave  []Item
}

// For returns the bucket for p, or nil for an unrecognized priority.
func (b Buckets) For(p Priority) []Item {
	switch p {
	case PriorityCritical:
		return b.Critical
	case PriorityImprovement:
		return b.Improvement
	case PriorityNiceToHave:
		return b.NiceToHave
	}
	return nil
}

// Counts returns the size of each bucket.
func (b Buckets) Counts() Counts {
	return Counts{Critical: len(b.Critical), Improvement: len(b.Improvement), NiceToHave: len(b.NiceToHave)}
}

// Group partitions items by priority. The relative order of items within a
// bucket matches their order in items; unrecognized priorities are dropped.
func Group(items []Item) Buckets {
	var b Buckets
	for _, it := range items {
		switch it.Priority {
		case PriorityCritical:
			b.Critical = append(b.Critical, it)
		case PriorityImprovement:
			b.Improvement = append(b.Improvement, it)
		case PriorityNiceToHave:
			b.NiceToHave = append(b.NiceToHave, it)
		}
	}
	return b
}

// Counts is the number of items per priority.
type Counts struct {
	Critical    int
	Improvement int
	NiceToHave  int
}

// Total is the number of bucketed items.
func (c Counts) Total() int { return c.Critical + c.Improvement + c.NiceToHave }

// For returns the count for p, zero for an unrecognized priority.
func (c Counts) For(p Priority) int {
	switch p {
	case PriorityCritical:
		return c.Critical
	case PriorityImprovement:
		return c.Improvement
	case PriorityNiceToHave:
		return c.NiceToHave
	}
	return 0
}

// Count tallies items per priority without building buckets. It applies the
// same membership rule as Group.
func Count(items []Item) Counts {
	var c Counts
	for _, it := range items {
		if !it.Priority.Valid() {
			continue
		}
		switch it.Priority {
		case PriorityCritical:
			c.Critical++
		case PriorityImprovement:
			c.Improvement++
		default:
			c.NiceToHave++
		}
	}
	return c
}
