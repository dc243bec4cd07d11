package types

import (
	"strings"
	"time"
)

type ContentType string

const (
	ContentTypeBlog  ContentType = "blog"
	ContentTypeFlows ContentType = "flows"
)

func (t ContentType) Valid() bool {
	return t == ContentTypeBlog || t == ContentTypeFlows
}

func ParseContentType(value string) (ContentType, bool) {
	t := ContentType(strings.ToLower(strings.TrimSpace(value)))
	return t, t.Valid()
}

type Author struct {
	Name   string `json:"name" yaml:"name"`
	Avatar string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

type GalleryImage struct {
	Url     string `json:"url" yaml:"url"`
	Alt     string `json:"alt,omitempty" yaml:"alt,omitempty"`
	Caption string `json:"caption,omitempty" yaml:"caption,omitempty"`
}

type DiagramNode struct {
	Id    string  `json:"id" yaml:"id"`
	Label string  `json:"label" yaml:"label"`
	Type  string  `json:"type,omitempty" yaml:"type,omitempty"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
}

type DiagramEdge struct {
	Id     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Diagram is the node graph shown on a flow page.
type Diagram struct {
	Nodes []DiagramNode `json:"nodes" yaml:"nodes"`
	Edges []DiagramEdge `json:"edges" yaml:"edges"`
}

// FlowDetails holds the fields only flows carry.
type FlowDetails struct {
	Category        string         `json:"category" yaml:"category"`
	Complexity      string         `json:"complexity" yaml:"complexity"`
	TimeToImplement string         `json:"timeToImplement" yaml:"timeToImplement"`
	ROI             string         `json:"roi" yaml:"roi"`
	Technologies    []string       `json:"technologies" yaml:"technologies"`
	Gallery         []GalleryImage `json:"gallery,omitempty" yaml:"gallery,omitempty"`
	Diagram         *Diagram       `json:"diagram,omitempty" yaml:"diagram,omitempty"`
}

// ContentItem is either a blog post or, when Flow is set, a flow.
type ContentItem struct {
	Id          string       `json:"id"`
	Slug        string       `json:"slug"`
	Title       string       `json:"title"`
	Paragraph   string       `json:"paragraph"`
	Tags        []string     `json:"tags"`
	Author      Author       `json:"author"`
	PublishDate string       `json:"publishDate"`
	Image       string       `json:"image,omitempty"`
	Body        string       `json:"body,omitempty"`
	BodyHTML    string       `json:"bodyHtml,omitempty"`
	Published   bool         `json:"published"`
	Flow        *FlowDetails `json:"flow,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (i *ContentItem) Kind() ContentType {
	if i.Flow != nil {
		return ContentTypeFlows
	}
	return ContentTypeBlog
}

// FlowOrZero never returns nil so callers can read flow fields of any item.
func (i *ContentItem) FlowOrZero() *FlowDetails {
	if i.Flow == nil {
		return &FlowDetails{}
	}
	return i.Flow
}

// Uncategorized is the category of items without a flow category or tag.
const Uncategorized = "Uncategorized"

// CategoryOf returns the value an item is bucketed under: the flow category
// for flows and the first tag for everything else.
func CategoryOf(item *ContentItem, contentType ContentType) string {
	category := ""
	if contentType == ContentTypeFlows {
		category = item.FlowOrZero().Category
	} else if len(item.Tags) > 0 {
		category = item.Tags[0]
	}
	if category == "" {
		return Uncategorized
	}
	return category
}

func (i *ContentItem) MatchesIdOrSlug(key string) bool {
	return i.Id == key || (i.Slug != "" && i.Slug == key)
}

const (
	ComplexityBeginner     = "beginner"
	ComplexityIntermediate = "intermediate"
	ComplexityAdvanced     = "advanced"
)

// ComplexityRank maps a complexity label to its ordinal. Both the
// beginner/intermediate/advanced vocabulary and the older low/medium/high
// one are accepted; anything else ranks 0.
func ComplexityRank(value string) int {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case ComplexityBeginner, "low":
		return 1
	case ComplexityIntermediate, "medium":
		return 2
	case ComplexityAdvanced, "high":
		return 3
	}
	return 0
}
