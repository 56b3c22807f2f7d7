// Package extract turns the portal's heterogeneous panel HTML into the
// uniform nested record structure persisted in the per-tab JSON files.
package extract

import (
	"bytes"
	"fmt"
)

// PlaceholderHref is the fixed opaque token the portal renders in place of a
// real document link when nothing is attached. It must never reach a links
// array or the download inventory.
const PlaceholderHref = "file/view/bTVVOTdSTy9qSlkrdTVSQ1U1a2hRbzk5cXN0TFBRMnJTb3RkOXgycjNPamlXbmdWV2Q1Qnd0clM4eG1oZldqb0xpTjNTaE9kM2w5ODBpZ0llbFRyaEE9PQ,,"

type valueKind int

const (
	kindText valueKind = iota
	kindList
	kindRows
)

// FieldValue is the closed union of shapes a single label/value fragment can
// produce: plain text, a list of item texts, or a list of rows, each with or
// without an accompanying set of document links. Serialization flattens the
// tag away to match the on-disk contract: a bare string/list when no links
// were found, a {text|items|rows, links} object otherwise.
type FieldValue struct {
	kind  valueKind
	text  string
	items []string
	rows  [][]string
	links []string
}

// TextValue builds a free-text field value.
func TextValue(text string, links []string) *FieldValue {
	return &FieldValue{kind: kindText, text: text, links: links}
}

// ListValue builds a plain-list field value.
func ListValue(items []string, links []string) *FieldValue {
	return &FieldValue{kind: kindList, items: items, links: links}
}

// RowsValue builds a table-rows field value.
func RowsValue(rows [][]string, links []string) *FieldValue {
	return &FieldValue{kind: kindRows, rows: rows, links: links}
}

// Links returns the collected document links, nil when none were found.
func (v *FieldValue) Links() []string {
	return v.links
}

// MarshalJSON flattens the union into the external JSON contract.
func (v *FieldValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch {
	case len(v.links) == 0:
		switch v.kind {
		case kindText:
			err = encodeValue(&buf, v.text)
		case kindList:
			err = encodeValue(&buf, emptyAsList(v.items))
		case kindRows:
			err = encodeValue(&buf, emptyRowsAsList(v.rows))
		}
	default:
		obj := NewRecord()
		switch v.kind {
		case kindText:
			obj.Set("text", v.text)
		case kindList:
			obj.Set("items", emptyAsList(v.items))
		case kindRows:
			obj.Set("rows", emptyRowsAsList(v.rows))
		}
		obj.Set("links", v.links)
		err = encodeValue(&buf, obj)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal field value: %w", err)
	}
	return buf.Bytes(), nil
}

func emptyAsList(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func emptyRowsAsList(rows [][]string) [][]string {
	if rows == nil {
		return [][]string{}
	}
	return rows
}

// linkSet accumulates document hrefs, dropping empties and the placeholder
// sentinel and deduplicating in first-seen order.
type linkSet struct {
	seen  map[string]struct{}
	links []string
}

func newLinkSet() *linkSet {
	return &linkSet{seen: make(map[string]struct{})}
}

// Add records href unless it is empty, the placeholder, or already present.
// It reports whether href was accepted.
func (s *linkSet) Add(href string) bool {
	if href == "" || href == PlaceholderHref {
		return false
	}
	if _, ok := s.seen[href]; ok {
		return false
	}
	s.seen[href] = struct{}{}
	s.links = append(s.links, href)
	return true
}

// Links returns the accepted hrefs, nil when none were accepted.
func (s *linkSet) Links() []string {
	return s.links
}
