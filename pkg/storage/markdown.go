package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/google/uuid"
	"github.com/matst80/flow-finder/pkg/types"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
	),
)

func RenderMarkdown(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(source, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// contentNamespace keeps imported ids stable across runs so re-importing a
// file updates the stored item instead of adding a copy.
var contentNamespace = uuid.MustParse("6f1c7a52-8a52-4e0c-9d3f-2b1f3c8e4a10")

func ImportedId(contentType types.ContentType, slug string) string {
	return uuid.NewSHA1(contentNamespace, []byte(string(contentType)+"/"+slug)).String()
}

type frontMatter struct {
	Title           string               `yaml:"title"`
	Slug            string               `yaml:"slug"`
	Paragraph       string               `yaml:"paragraph"`
	Summary         string               `yaml:"summary"`
	Tags            []string             `yaml:"tags"`
	Author          types.Author         `yaml:"author"`
	PublishDate     string               `yaml:"publishDate"`
	Image           string               `yaml:"image"`
	Published       *bool                `yaml:"published"`
	Category        string               `yaml:"category"`
	Complexity      string               `yaml:"complexity"`
	TimeToImplement string               `yaml:"timeToImplement"`
	ROI             string               `yaml:"roi"`
	Technologies    []string             `yaml:"technologies"`
	Gallery         []types.GalleryImage `yaml:"gallery"`
	Diagram         *types.Diagram       `yaml:"diagram"`
}

// ParseMarkdown reads one content file. Files without front matter are
// accepted and take their title from the file name.
func ParseMarkdown(contentType types.ContentType, name string, data []byte) (types.ContentItem, error) {
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("front matter of %s: %w", name, err)
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	slug := fm.Slug
	if slug == "" {
		slug = types.Slugify(base)
	}
	title := fm.Title
	if title == "" {
		title = strings.ReplaceAll(base, "-", " ")
	}
	paragraph := fm.Paragraph
	if paragraph == "" {
		paragraph = fm.Summary
	}
	html, err := RenderMarkdown(body)
	if err != nil {
		return types.ContentItem{}, fmt.Errorf("render %s: %w", name, err)
	}
	item := types.ContentItem{
		Id:          ImportedId(contentType, slug),
		Slug:        slug,
		Title:       title,
		Paragraph:   paragraph,
		Tags:        fm.Tags,
		Author:      fm.Author,
		PublishDate: fm.PublishDate,
		Image:       fm.Image,
		Body:        string(body),
		BodyHTML:    html,
		Published:   fm.Published == nil || *fm.Published,
	}
	if contentType == types.ContentTypeFlows {
		item.Flow = &types.FlowDetails{
			Category:        fm.Category,
			Complexity:      fm.Complexity,
			TimeToImplement: fm.TimeToImplement,
			ROI:             fm.ROI,
			Technologies:    fm.Technologies,
			Gallery:         fm.Gallery,
			Diagram:         fm.Diagram,
		}
	}
	item.Normalize()
	return item, nil
}

// LoadMarkdownDir reads dir/blog/*.md and dir/flows/*.md in file name
// order. A missing sub directory yields no items of that type.
func LoadMarkdownDir(dir string) ([]types.ContentItem, error) {
	ret := make([]types.ContentItem, 0)
	for _, contentType := range []types.ContentType{types.ContentTypeBlog, types.ContentTypeFlows} {
		files, err := filepath.Glob(filepath.Join(dir, string(contentType), "*.md"))
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", file, err)
			}
			item, err := ParseMarkdown(contentType, file, data)
			if err != nil {
				return nil, err
			}
			ret = append(ret, item)
		}
	}
	return ret, nil
}
