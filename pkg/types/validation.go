package types

import (
	"errors"
	"fmt"
	"strings"
)

var ErrValidation = errors.New("validation failed")

// ValidationError lists every problem found on a content item.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validate checks the fields the filter and sort utilities rely on. It
// returns a *ValidationError for hard failures and a list of warnings for
// values that are accepted but will not sort or facet well.
func (i *ContentItem) Validate() (warnings []string, err error) {
	problems := make([]string, 0)
	if strings.TrimSpace(i.Title) == "" {
		problems = append(problems, "title is required")
	}
	if strings.TrimSpace(i.Author.Name) == "" {
		problems = append(problems, "author name is required")
	}
	if i.Flow == nil && len(i.Tags) == 0 {
		warnings = append(warnings, "blog post has no tags and will be listed as uncategorized")
	}
	if i.Flow != nil {
		if strings.TrimSpace(i.Flow.Category) == "" {
			warnings = append(warnings, "flow has no category")
		}
		if i.Flow.Complexity != "" && ComplexityRank(i.Flow.Complexity) == 0 {
			warnings = append(warnings, fmt.Sprintf("complexity %q is not one of beginner, intermediate, advanced", i.Flow.Complexity))
		}
		if i.Flow.Diagram != nil {
			problems = append(problems, i.Flow.Diagram.problems()...)
		}
		for idx, img := range i.Flow.Gallery {
			if strings.TrimSpace(img.Url) == "" {
				problems = append(problems, fmt.Sprintf("gallery image %d has no url", idx))
			}
		}
	}
	if len(problems) > 0 {
		return warnings, &ValidationError{Problems: problems}
	}
	return warnings, nil
}

func (d *Diagram) problems() []string {
	ret := make([]string, 0)
	nodes := make(map[string]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.Id == "" {
			ret = append(ret, "diagram node without id")
			continue
		}
		if _, found := nodes[n.Id]; found {
			ret = append(ret, fmt.Sprintf("duplicate diagram node %q", n.Id))
		}
		nodes[n.Id] = struct{}{}
	}
	for _, e := range d.Edges {
		if _, ok := nodes[e.Source]; !ok {
			ret = append(ret, fmt.Sprintf("edge %q references unknown source %q", e.Id, e.Source))
		}
		if _, ok := nodes[e.Target]; !ok {
			ret = append(ret, fmt.Sprintf("edge %q references unknown target %q", e.Id, e.Target))
		}
	}
	return ret
}

// Normalize fills nil slices and trims whitespace so stored items compare
// the same way they are displayed.
func (i *ContentItem) Normalize() {
	i.Title = strings.TrimSpace(i.Title)
	i.Slug = strings.TrimSpace(i.Slug)
	i.Author.Name = strings.TrimSpace(i.Author.Name)
	i.Tags = cleanList(i.Tags)
	if i.Flow != nil {
		i.Flow.Technologies = cleanList(i.Flow.Technologies)
		if i.Flow.Gallery == nil {
			i.Flow.Gallery = []GalleryImage{}
		}
	}
}

func cleanList(values []string) []string {
	ret := make([]string, 0, len(values))
	for _, v := range values {
		part := strings.TrimSpace(v)
		if part == "" {
			continue
		}
		ret = append(ret, part)
	}
	return ret
}
