// Package parser reads Content Catalog files into raw catalog entries.
package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/knolbox/internal/domain"
)

type field int

const (
	none field = iota
	id
	title
	content
	category
	difficulty
	updated
)

// prefixes in match order. Q:/A:/C: are the short forms used by older decks.
var prefixes = []struct {
	prefix string
	field  field
}{
	{"ID:", id},
	{"Title:", title},
	{"Q:", title},
	{"Content:", content},
	{"A:", content},
	{"Category:", category},
	{"C:", category},
	{"Difficulty:", difficulty},
	{"Updated:", updated},
}

// multiline reports whether continuation lines belong to f.
func (f field) multiline() bool {
	return f == title || f == content
}

// ParseFile reads a catalog file. Markdown files use the block format read
// by Parse; .json files hold an array of entries.
func ParseFile(path string) ([]domain.RawCatalogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(file)
	}
	return Parse(file)
}

// ParseJSON decodes a JSON array of catalog entries.
func ParseJSON(r io.Reader) ([]domain.RawCatalogEntry, error) {
	var entries []domain.RawCatalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog json: %w", err)
	}
	return entries, nil
}

// Parse reads catalog markdown. Entries are separated by a line holding only
// "---"; within an entry each field starts with its prefix. Title and content
// run on until the next prefix or separator.
func Parse(r io.Reader) ([]domain.RawCatalogEntry, error) {
	scanner := bufio.NewScanner(r)
	var entries []domain.RawCatalogEntry
	var current domain.RawCatalogEntry
	var block []string
	state := none

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		value := strings.TrimRight(strings.Join(block, "\n"), " \t\n")
		switch state {
		case id:
			current.ID = value
		case title:
			current.Title = value
		case content:
			current.Content = value
		case category:
			current.Category = value
		case difficulty:
			current.Difficulty = value
		case updated:
			current.UpdatedAt = value
		}
		block = nil
	}

	finishEntry := func() {
		flushBlock()
		if current != (domain.RawCatalogEntry{}) {
			entries = append(entries, current)
		}
		current = domain.RawCatalogEntry{}
		state = none
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "---" {
			finishEntry()
			continue
		}

		next, rest, ok := matchPrefix(line)
		if !ok {
			if state.multiline() {
				block = append(block, line)
			}
			continue
		}

		flushBlock()
		// A repeated id or title without a separator starts the next entry.
		if (next == id && current.ID != "") || (next == title && current.Title != "") {
			finishEntry()
		}
		state = next
		block = append(block, rest)
	}

	finishEntry()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func matchPrefix(line string) (field, string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p.prefix) {
			return p.field, strings.TrimPrefix(line[len(p.prefix):], " "), true
		}
	}
	return none, "", false
}
