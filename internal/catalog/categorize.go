package catalog

import "strings"

// Category labels.
const (
	CategoryQualityControl = "Quality Control"
	CategoryAlignment      = "Alignment"
	CategoryAssembly       = "Assembly"
	CategoryAnnotation     = "Annotation"
	CategoryClassification = "Classification"
	CategoryVisualization  = "Visualization"
	CategoryOther          = "Other"
)

// CategoryOrder lists every label in rule order, for stable display.
var CategoryOrder = []string{
	CategoryQualityControl,
	CategoryAlignment,
	CategoryAssembly,
	CategoryAnnotation,
	CategoryClassification,
	CategoryVisualization,
	CategoryOther,
}

// categoryRule matches lower-cased substrings of a tool's name or description.
type categoryRule struct {
	category  string
	nameTerms []string
	descTerms []string
}

// Rules are evaluated in order; the first match wins.
var categoryRules = []categoryRule{
	{category: CategoryQualityControl, nameTerms: []string{"qc"}, descTerms: []string{"quality"}},
	{category: CategoryAlignment, descTerms: []string{"align", "mapping"}},
	{category: CategoryAssembly, descTerms: []string{"assembl"}},
	{category: CategoryAnnotation, descTerms: []string{"annotation"}},
	{category: CategoryClassification, descTerms: []string{"classification", "taxonomic"}},
	{category: CategoryVisualization, descTerms: []string{"visualization"}},
}

// Categorize returns the single category label for a tool.
func Categorize(t Tool) string {
	name := strings.ToLower(t.ToolName)
	desc := strings.ToLower(t.Description)

	for _, rule := range categoryRules {
		if containsAny(name, rule.nameTerms) || containsAny(desc, rule.descTerms) {
			return rule.category
		}
	}
	return CategoryOther
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// Categories partitions the current tools by Categorize. Buckets keep catalog
// order and categories without members are left out.
func (c *Catalog) Categories() map[string][]Tool {
	categories := make(map[string][]Tool)
	for _, t := range c.ListAll() {
		label := Categorize(t)
		categories[label] = append(categories[label], t)
	}
	return categories
}
