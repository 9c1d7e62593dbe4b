package grammar

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// MorphoEntry is one lexicon entry: a surface form resolves to Lemma with
// opaque Analysis tag and log-neg prior Prob.
type MorphoEntry struct {
	Lemma    string  `json:"lemma"`
	Analysis string  `json:"analysis"`
	Prob     float64 `json:"prob"`
}

// FunctionEntry describes one abstract function symbol known to the
// grammar: its syntactic category and its log-neg prior within that
// category.
type FunctionEntry struct {
	Type  string  `json:"type"`
	Prior float64 `json:"prior"`
}

// memoryDoc is the on-disk JSON shape loaded by NewMemoryFromReader.
type memoryDoc struct {
	Categories map[string]float64                  `json:"categories"`
	Functions  map[string]FunctionEntry            `json:"functions"`
	Languages  map[string]map[string][]MorphoEntry `json:"languages"`
}

// Memory is a small in-memory reference Grammar, loaded from JSON. It exists
// to exercise TreeBuilder, ParamStore's back-off prior, and ModelIO in tests
// and the CLI demo — a production morphological grammar is out of scope.
type Memory struct {
	categories map[string]float64
	functions  map[string]FunctionEntry
	languages  map[string]*memoryConcrete
}

type memoryConcrete struct {
	lexicon map[string][]MorphoEntry
}

func (c *memoryConcrete) LookupMorpho(surface string, cb MorphoCallback) {
	for _, e := range c.lexicon[surface] {
		cb(e.Lemma, e.Analysis, e.Prob)
	}
}

// NewMemory builds a Memory grammar directly from in-memory data (useful for
// unit tests that don't want to round-trip through JSON).
func NewMemory(
	categories map[string]float64,
	functions map[string]FunctionEntry,
	languages map[string]map[string][]MorphoEntry,
) *Memory {
	m := &Memory{
		categories: categories,
		functions:  functions,
		languages:  make(map[string]*memoryConcrete, len(languages)),
	}
	for tag, lex := range languages {
		m.languages[tag] = &memoryConcrete{lexicon: lex}
	}
	return m
}

// NewMemoryFromFile loads a Memory grammar from a JSON document at path.
func NewMemoryFromFile(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "grammar: opening %s", path)
	}
	defer f.Close()
	return NewMemoryFromReader(f)
}

// NewMemoryFromReader loads a Memory grammar from JSON read from r.
func NewMemoryFromReader(r io.Reader) (*Memory, error) {
	var doc memoryDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "grammar: decoding lexicon")
	}
	return NewMemory(doc.Categories, doc.Functions, doc.Languages), nil
}

func (m *Memory) GetLanguage(tag string) (Concrete, bool) {
	c, ok := m.languages[tag]
	if !ok {
		return nil, false
	}
	return c, true
}

func (m *Memory) FunctionType(fun string) (string, bool) {
	e, ok := m.functions[fun]
	if !ok {
		return "", false
	}
	return e.Type, true
}

func (m *Memory) CategoryPrior(cat string) float64 {
	if p, ok := m.categories[cat]; ok {
		return p
	}
	return 0
}

func (m *Memory) FunctionPrior(fun string) float64 {
	if e, ok := m.functions[fun]; ok {
		return e.Prior
	}
	return 0
}

func (m *Memory) IterFunctions(cb func(fun string)) {
	for fun := range m.functions {
		cb(fun)
	}
}
