package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matst80/flow-finder/pkg/types"
)

// Columns understood in a content csv. The header row names them, order and
// unknown columns do not matter.
const (
	colKind            = "kind"
	colSlug            = "slug"
	colTitle           = "title"
	colParagraph       = "paragraph"
	colTags            = "tags"
	colAuthor          = "author"
	colPublishDate     = "publishDate"
	colImage           = "image"
	colPublished       = "published"
	colCategory        = "category"
	colComplexity      = "complexity"
	colTimeToImplement = "timeToImplement"
	colRoi             = "roi"
	colTechnologies    = "technologies"
	colBody            = "body"
)

func readCsvFile(filePath string) ([]types.ContentItem, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read input file %s: %w", filePath, err)
	}
	defer f.Close()
	return readCsv(f)
}

// readCsv parses semicolon separated rows. List cells are comma separated.
func readCsv(r io.Reader) ([]types.ContentItem, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = ';'
	csvReader.FieldsPerRecord = -1
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse file as csv: %w", err)
	}
	if len(records) == 0 {
		return []types.ContentItem{}, nil
	}
	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(name)] = i
	}
	if _, ok := header[colTitle]; !ok {
		return nil, fmt.Errorf("csv header has no %q column", colTitle)
	}

	items := make([]types.ContentItem, 0, len(records)-1)
	for line, record := range records[1:] {
		item, err := contentItemFromLine(header, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+2, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func splitList(value string) []string {
	ret := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ret = append(ret, part)
		}
	}
	return ret
}

func contentItemFromLine(header map[string]int, record []string) (types.ContentItem, error) {
	get := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	item := types.ContentItem{
		Slug:        get(colSlug),
		Title:       get(colTitle),
		Paragraph:   get(colParagraph),
		Tags:        splitList(get(colTags)),
		Author:      types.Author{Name: get(colAuthor)},
		PublishDate: get(colPublishDate),
		Image:       get(colImage),
		Body:        get(colBody),
		Published:   true,
	}
	if published := get(colPublished); published != "" {
		v, err := strconv.ParseBool(published)
		if err != nil {
			return item, fmt.Errorf("published %q: %w", published, err)
		}
		item.Published = v
	}

	kind := types.ContentTypeBlog
	if value := get(colKind); value != "" {
		var ok bool
		if kind, ok = types.ParseContentType(value); !ok {
			return item, fmt.Errorf("unknown kind %q", value)
		}
	}
	if kind == types.ContentTypeFlows {
		item.Flow = &types.FlowDetails{
			Category:        get(colCategory),
			Complexity:      get(colComplexity),
			TimeToImplement: get(colTimeToImplement),
			ROI:             get(colRoi),
			Technologies:    splitList(get(colTechnologies)),
		}
	}
	return item, nil
}
