package feed

import (
	"fmt"
	"slices"
	"strings"
)

// FilterFields lists the item fields a source filter may inspect. "text"
// spans title, description and content; "publisher" is the outlet named by
// the feed or by NewsAPI's source object.
var FilterFields = []string{"title", "description", "content", "text", "authors", "link", "categories", "publisher"}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run marks the items a source's keyword filters reject. Every item is
// returned in order; rejected ones carry IsFiltered and a reason.
func (f *Filterer) Run(items []Item, filters []ConfigFilter) []Item {
	rules := compileRules(filters)
	if len(rules) == 0 {
		return items
	}

	marked := make([]Item, len(items))
	for i, item := range items {
		for _, r := range rules {
			if reason := r.reject(item); reason != "" {
				item.IsFiltered = true
				item.FilterReason = reason
				break
			}
		}
		marked[i] = item
	}

	return marked
}

type rule struct {
	field    string
	includes []string
	excludes []string
}

// compileRules lower-cases patterns once per run and drops blank patterns
// and unknown fields.
func compileRules(filters []ConfigFilter) []rule {
	rules := make([]rule, 0, len(filters))
	for _, filter := range filters {
		if !slices.Contains(FilterFields, filter.Field) {
			continue
		}
		r := rule{
			field:    filter.Field,
			includes: lowerPatterns(filter.Includes),
			excludes: lowerPatterns(filter.Excludes),
		}
		if len(r.includes) > 0 || len(r.excludes) > 0 {
			rules = append(rules, r)
		}
	}
	return rules
}

func lowerPatterns(patterns []string) []string {
	lowered := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern = strings.ToLower(strings.TrimSpace(pattern)); pattern != "" {
			lowered = append(lowered, pattern)
		}
	}
	return lowered
}

func (r rule) reject(item Item) string {
	value := strings.ToLower(fieldValue(item, r.field))
	mentions := func(pattern string) bool { return strings.Contains(value, pattern) }

	if i := slices.IndexFunc(r.excludes, mentions); i >= 0 {
		return fmt.Sprintf("%s mentions excluded keyword %q", r.field, r.excludes[i])
	}
	if len(r.includes) > 0 && !slices.ContainsFunc(r.includes, mentions) {
		return fmt.Sprintf("%s mentions none of %v", r.field, r.includes)
	}
	return ""
}

func fieldValue(item Item, field string) string {
	switch field {
	case "title":
		return item.Title
	case "description":
		return item.Description
	case "content":
		return item.Content
	case "text":
		return strings.Join([]string{item.Title, item.Description, item.Content}, "\n")
	case "authors":
		return strings.Join(item.Authors, " ")
	case "link":
		return item.Link
	case "categories":
		return strings.Join(item.Categories, " ")
	case "publisher":
		return item.Publisher
	}
	return ""
}
