package feedback

import (
	_ "embed"
	"fmt"
	"html/template"
	"strings"
)

// genericCategoryGlyph is used for any category outside the known set.
const genericCategoryGlyph = "📌"

var categoryGlyphs = map[Category]string{
	CategoryUI:   "🎨",
	CategoryUX:   "🧠",
	CategoryCopy: "✍️",
	CategoryTech: "⚙️",
}

type priorityStyle struct {
	Glyph string
	Label string
}

var priorityStyles = map[Priority]priorityStyle{
	PriorityCritical:    {Glyph: "🔴", Label: "Crítico"},
	PriorityImprovement: {Glyph: "🟡", Label: "Mejora"},
	PriorityNiceToHave:  {Glyph: "🟢", Label: "Nice-to-have"},
}

// CategoryGlyph returns the emoji shown next to an item of category c.
func CategoryGlyph(c Category) string {
	if g, ok := categoryGlyphs[c]; ok {
		return g
	}
	return genericCategoryGlyph
}

// PriorityLabel returns the human section label for p, or "" if p is not
// recognized.
func PriorityLabel(p Priority) string {
	return priorityStyles[p].Label
}

//go:embed widget.html.tmpl
var widgetSource string

var widgetTemplate = template.Must(template.New("widget").Parse(widgetSource))

type widgetView struct {
	Total    int
	Counts   Counts
	Sections []sectionView
}

type sectionView struct {
	Glyph string
	Label string
	Count int
	Cards []cardView
}

type cardView struct {
	Glyph    string
	Category string
	Text     string
	Quote    string
}

func newWidgetView(b Buckets) widgetView {
	counts := b.Counts()
	v := widgetView{Total: counts.Total(), Counts: counts, Sections: make([]sectionView, 0, len(priorityOrder))}
	for _, p := range priorityOrder {
		style := priorityStyles[p]
		items := b.For(p)
		sec := sectionView{Glyph: style.Glyph, Label: style.Label, Count: len(items)}
		for _, it := range items {
			sec.Cards = append(sec.Cards, cardView{
				Glyph:    CategoryGlyph(it.Category),
				Category: string(it.Category),
				Text:     it.Item,
				Quote:    it.OriginalQuote,
			})
		}
		v.Sections = append(v.Sections, sec)
	}
	return v
}

// Render produces the complete HTML widget for items. The output depends only
// on items, so identical input yields byte-identical output. The returned
// error is non-nil only if template execution fails.
func Render(items []Item) (string, error) {
	var sb strings.Builder
	if err := widgetTemplate.Execute(&sb, newWidgetView(Group(items))); err != nil {
		return "", fmt.Errorf("render feedback widget: %w", err)
	}
	return sb.String(), nil
}
