package wordbank

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

//go:embed words.json
var defaultWords []byte

// ErrUnknownCategory is returned when a category has no entries
var ErrUnknownCategory = errors.New("unknown category")

// Entry is one secret word with the hints that may be shown to the impostor
type Entry struct {
	Word   string   `json:"word"`
	Hints  []string `json:"hints"`
	Weight int      `json:"weight,omitempty"`
}

// Pick is the word and hint drawn for a round
type Pick struct {
	Word string
	Hint string
}

// Intn is the random source a Bank draws from
type Intn interface {
	Intn(n int) int
}

// Bank supplies one random (word, hint) pair per call
type Bank interface {
	PickRandomEntry(category string) (Pick, error)
	Categories() []string
	HasCategory(category string) bool
}

var _ Bank = &Static{}

// Static is a fixed set of categories loaded once
type Static struct {
	categories map[string][]Entry
	names      []string

	mu  sync.Mutex
	rng Intn
}

// New builds a bank from categories. Entries without a word or hint are
// dropped, and a weight below 1 counts as 1.
func New(categories map[string][]Entry, rng Intn) (*Static, error) {
	if rng == nil {
		return nil, errors.New("wordbank: nil random source")
	}

	b := &Static{
		categories: make(map[string][]Entry, len(categories)),
		rng:        rng,
	}
	for name, entries := range categories {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var kept []Entry
		for _, e := range entries {
			e.Word = strings.TrimSpace(e.Word)
			if e.Word == "" || len(e.Hints) == 0 {
				continue
			}
			if e.Weight < 1 {
				e.Weight = 1
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			continue
		}
		b.categories[name] = kept
		b.names = append(b.names, name)
	}
	if len(b.names) == 0 {
		return nil, errors.New("wordbank: no usable categories")
	}
	sort.Strings(b.names)

	return b, nil
}

// Load reads categories as a JSON object of category name to entries
func Load(r io.Reader, rng Intn) (*Static, error) {
	var categories map[string][]Entry
	if err := json.NewDecoder(r).Decode(&categories); err != nil {
		return nil, fmt.Errorf("parsing word bank: %w", err)
	}
	return New(categories, rng)
}

// LoadFile reads a word bank JSON file
func LoadFile(path string, rng Intn) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading word bank: %w", err)
	}
	defer f.Close()
	return Load(f, rng)
}

// Default returns the built-in categories
func Default(rng Intn) (*Static, error) {
	return Load(bytes.NewReader(defaultWords), rng)
}

// PickRandomEntry draws an entry by weight, then one of its hints uniformly
func (b *Static) PickRandomEntry(category string) (Pick, error) {
	entries, ok := b.categories[category]
	if !ok {
		return Pick{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	total := 0
	for _, e := range entries {
		total += e.Weight
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.rng.Intn(total)
	entry := entries[len(entries)-1]
	for _, e := range entries {
		if n < e.Weight {
			entry = e
			break
		}
		n -= e.Weight
	}

	return Pick{
		Word: entry.Word,
		Hint: entry.Hints[b.rng.Intn(len(entry.Hints))],
	}, nil
}

// Categories returns the category names in sorted order
func (b *Static) Categories() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// HasCategory reports whether category has entries
func (b *Static) HasCategory(category string) bool {
	_, ok := b.categories[category]
	return ok
}
