package api

import (
	"encoding/json"
	"strings"
)

// ElementKind identifies one structural unit of extracted page content.
type ElementKind int

const (
	ElementUnknown ElementKind = iota
	ElementText
	ElementImage
	ElementTable
)

func (k ElementKind) String() string {
	switch k {
	case ElementText:
		return "text"
	case ElementImage:
		return "image"
	case ElementTable:
		return "table"
	default:
		return "unknown"
	}
}

// Element is a tagged variant over the extractor's content types. Unrecognized
// type tags decode to ElementUnknown rather than failing the whole page.
type Element struct {
	Kind     ElementKind
	Text     string
	FontSize float64 // extractor hint, zero when absent
	Path     string
	Rows     [][]string
}

type elementWire struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

type textContent struct {
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size"`
}

type imageContent struct {
	Path string `json:"path"`
}

type tableContent struct {
	Rows [][]string `json:"rows"`
}

// UnmarshalJSON decodes the {type, content} wire shape. The table content is
// accepted either as {"rows": [...]} or as a bare row array, matching both
// extractor generations.
func (e *Element) UnmarshalJSON(data []byte) error {
	var wire elementWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch strings.ToLower(wire.Type) {
	case "text":
		var content textContent
		if err := json.Unmarshal(wire.Content, &content); err != nil {
			return err
		}
		e.Kind = ElementText
		e.Text = content.Text
		e.FontSize = content.FontSize
	case "image":
		var content imageContent
		if err := json.Unmarshal(wire.Content, &content); err != nil {
			return err
		}
		e.Kind = ElementImage
		e.Path = content.Path
	case "table":
		var content tableContent
		if err := json.Unmarshal(wire.Content, &content); err != nil {
			var rows [][]string
			if err := json.Unmarshal(wire.Content, &rows); err != nil {
				return err
			}
			content.Rows = rows
		}
		e.Kind = ElementTable
		e.Rows = content.Rows
	default:
		e.Kind = ElementUnknown
	}
	return nil
}

// ImageRef points at an extracted image asset relative to the content server.
type ImageRef struct {
	Path string `json:"path"`
}

// Page is one logical unit of the loaded document. Elements carries the
// ordered mixed content; the flat Text/Tables/Images fields are the legacy
// shape emitted by older extractors and are consulted only when Elements is
// absent entirely.
type Page struct {
	PageNumber int        `json:"page_number"`
	Elements   []Element  `json:"elements"`
	Text       string     `json:"text"`
	Tables     [][][]string `json:"tables"`
	Images     []ImageRef `json:"images"`
}

// PageResult bundles a fetched page with the document-level counters the
// content API returns alongside it.
type PageResult struct {
	Page       Page `json:"page"`
	TotalPages int  `json:"total_pages"`
	Current    int  `json:"current_page"`
}

// Match is one search hit with surrounding context. HighlightStart/End index
// into Context, bounding the matched query text.
type Match struct {
	Context        string `json:"context"`
	Position       int    `json:"position"`
	HighlightStart int    `json:"highlight_start"`
	HighlightEnd   int    `json:"highlight_end"`
}

// SearchResult groups every match found on a single page.
type SearchResult struct {
	PageNumber int     `json:"page_number"`
	Matches    []Match `json:"matches"`
}

// BookmarkAction is the mutation verb accepted by the bookmark endpoint.
type BookmarkAction string

const (
	BookmarkAdd    BookmarkAction = "add"
	BookmarkRemove BookmarkAction = "remove"
)
