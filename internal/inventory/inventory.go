// Package inventory walks the scraped tab documents and collects every
// document link, grouped by the top-level project key it was found under.
package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// tabsFile lists the discovered tabs, not project records, and is skipped.
const tabsFile = "tabs.json"

// Inventory maps a category (a top-level key of a tab document) to the link
// strings found anywhere beneath it, in document order. Duplicates survive
// at this stage; the download pipeline deduplicates per category.
type Inventory map[string][]string

// Collect streams one tab document and appends every element of every
// "links" array to the bucket of the nearest top-level key. The walk runs
// over the raw token stream, so link order follows the document and two runs
// over the same file collect identically. The return value counts the links
// fields seen, as a per-file diagnostic.
func Collect(r io.Reader, inv Inventory) (int, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return 0, fmt.Errorf("tab document is not a JSON object: %w", err)
	}

	fields := 0
	for dec.More() {
		category, err := readKey(dec)
		if err != nil {
			return fields, err
		}
		n, err := walkValue(dec, category, inv)
		if err != nil {
			return fields, err
		}
		fields += n
	}
	if _, err := dec.Token(); err != nil {
		return fields, fmt.Errorf("unterminated tab document: %w", err)
	}
	return fields, nil
}

func walkValue(dec *json.Decoder, category string, inv Inventory) (int, error) {
	tok, err := dec.Token()
	if err != nil {
		return 0, fmt.Errorf("read tab document: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return 0, nil
	}

	fields := 0
	switch delim {
	case '{':
		for dec.More() {
			key, err := readKey(dec)
			if err != nil {
				return fields, err
			}
			if key == "links" {
				n, err := collectLinks(dec, category, inv)
				if err != nil {
					return fields, err
				}
				fields += n
				continue
			}
			n, err := walkValue(dec, category, inv)
			if err != nil {
				return fields, err
			}
			fields += n
		}
	case '[':
		for dec.More() {
			n, err := walkValue(dec, category, inv)
			if err != nil {
				return fields, err
			}
			fields += n
		}
	}
	if _, err := dec.Token(); err != nil {
		return fields, fmt.Errorf("unterminated value: %w", err)
	}
	return fields, nil
}

// collectLinks consumes the value bound to a "links" key. Only an array
// counts as a links field; its string elements join the category bucket.
func collectLinks(dec *json.Decoder, category string, inv Inventory) (int, error) {
	tok, err := dec.Token()
	if err != nil {
		return 0, fmt.Errorf("read links value: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return 0, nil
	}
	if delim != '[' {
		// A mapping named "links" is not a link list; walk through it.
		return walkObjectBody(dec, category, inv)
	}

	for dec.More() {
		elem, err := dec.Token()
		if err != nil {
			return 1, fmt.Errorf("read link element: %w", err)
		}
		if s, ok := elem.(string); ok {
			inv[category] = append(inv[category], s)
			continue
		}
		if d, ok := elem.(json.Delim); ok && (d == '{' || d == '[') {
			if err := skipCompound(dec); err != nil {
				return 1, err
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return 1, fmt.Errorf("unterminated links array: %w", err)
	}
	return 1, nil
}

// walkObjectBody continues walking after an object's opening brace was
// already consumed.
func walkObjectBody(dec *json.Decoder, category string, inv Inventory) (int, error) {
	fields := 0
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return fields, err
		}
		if key == "links" {
			n, err := collectLinks(dec, category, inv)
			if err != nil {
				return fields, err
			}
			fields += n
			continue
		}
		n, err := walkValue(dec, category, inv)
		if err != nil {
			return fields, err
		}
		fields += n
	}
	if _, err := dec.Token(); err != nil {
		return fields, fmt.Errorf("unterminated object: %w", err)
	}
	return fields, nil
}

// skipCompound consumes the remainder of an already-opened object or array.
func skipCompound(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("skip nested value: %w", err)
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("read object key: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("object key is %T, not a string", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("got %v, want %v", tok, want)
	}
	return nil
}

// FromDir builds the inventory from every tab document in dir, skipping the
// tabs listing itself. Files are visited in sorted name order so two runs
// over the same input produce identical output.
func FromDir(dir string, logger *zap.Logger) (Inventory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scraped dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" || e.Name() == tabsFile {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	inv := Inventory{}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read tab file %s: %w", name, err)
		}
		fields, err := Collect(bytes.NewReader(data), inv)
		if err != nil {
			return nil, fmt.Errorf("collect links from %s: %w", name, err)
		}
		logger.Info("collected links",
			zap.String("file", name),
			zap.Int("links_fields", fields),
		)
	}
	return inv, nil
}

// Write persists the inventory as a category → links JSON object. Keys are
// sorted by the encoder, so the file is byte-identical across runs over the
// same input.
func (inv Inventory) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create inventory file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(inv); err != nil {
		f.Close()
		return fmt.Errorf("encode inventory: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close inventory file: %w", err)
	}
	return nil
}

// Read loads an inventory previously persisted with Write.
func Read(path string) (Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory file: %w", err)
	}
	var inv Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("decode inventory file: %w", err)
	}
	return inv, nil
}

// Size returns the total number of collected links across all categories.
func (inv Inventory) Size() int {
	n := 0
	for _, links := range inv {
		n += len(links)
	}
	return n
}
