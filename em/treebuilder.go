package em

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/krangelov/wordnet/conll"
	"github.com/krangelov/wordnet/grammar"
	"github.com/krangelov/wordnet/logmath"
)

// NewDepTree builds a single-candidate DepTree forced to fun: useful for
// embedding a gold-standard or externally decided tree instead of letting
// morphological lookup propose candidates. If parent is non-nil, the new
// node is appended to parent's children. The caller must still pass the
// finished top-level tree to AddDepTree to register it and initialize
// counts.
func (s *EMState) NewDepTree(parent *DepTree, fun, label string, index, nChildren int) *DepTree {
	stats := s.getOrCreateFun(fun)
	node := &DepTree{
		Index:    index,
		Label:    label,
		Choices:  []*SenseChoice{{Stats: stats}},
		Children: make([]*DepTree, 0, nChildren),
	}
	if parent != nil {
		parent.Children = append(parent.Children, node)
	}
	s.unigramTotal++
	s.bigramTotal += nChildren
	return node
}

// NewConllDepTree builds a DepTree from one sentence's CoNLL records
// against language's morphological lookup, filters it with the registered
// Ranker callbacks, initializes counts, and registers it on the state.
func (s *EMState) NewConllDepTree(language string, records []conll.Record) (*DepTree, error) {
	concrete, ok := s.Grammar.GetLanguage(language)
	if !ok {
		return nil, &grammar.UnknownLanguageError{Language: language}
	}

	byHead := make(map[string][]conll.Record, len(records))
	posByID := make(map[string]int, len(records))
	var root conll.Record
	haveRoot := false
	for i, r := range records {
		byHead[r.Head()] = append(byHead[r.Head()], r)
		posByID[r.ID()] = i
		if r.IsRoot() {
			root, haveRoot = r, true
		}
	}
	if !haveRoot {
		return nil, ErrNoSentenceRoot
	}

	tree := s.buildNode(concrete, root, byHead, posByID)
	if err := s.AddDepTree(tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func (s *EMState) buildNode(c grammar.Concrete, rec conll.Record, byHead map[string][]conll.Record, posByID map[string]int) *DepTree {
	childRecs := byHead[rec.ID()]

	node := &DepTree{
		Index:    posByID[rec.ID()],
		Label:    rec.Label(),
		POS:      rec.POS(),
		Children: make([]*DepTree, 0, len(childRecs)),
	}
	if s.preserveTrees {
		node.Record = rec
	}
	node.Choices = s.lookupChoices(c, rec.Form())
	s.unigramTotal++

	for _, cr := range childRecs {
		child := s.buildNode(c, cr, byHead, posByID)
		node.Children = append(node.Children, child)
		s.bigramTotal++
	}
	return node
}

// lookupChoices resolves surface to candidate SenseChoices, retrying with
// the form lowercased (per Unicode code point) if the first lookup yields
// nothing.
func (s *EMState) lookupChoices(c grammar.Concrete, surface string) []*SenseChoice {
	choices := s.lookupOnce(c, surface)
	if len(choices) == 0 {
		if lower := strings.ToLower(surface); lower != surface {
			choices = s.lookupOnce(c, lower)
		}
	}
	return choices
}

func (s *EMState) lookupOnce(c grammar.Concrete, surface string) []*SenseChoice {
	var choices []*SenseChoice
	seen := make(map[string]bool)
	c.LookupMorpho(surface, func(lemma, analysis string, prob float64) {
		if seen[lemma] {
			return
		}
		seen[lemma] = true
		choices = append(choices, &SenseChoice{Stats: s.getOrCreateFun(lemma)})
	})
	return choices
}

// AddDepTree filters tree with the registered Ranker callbacks, initializes
// its counts (bootstrapping every FunStats/ProbCount cell it touches), and
// registers it on the state.
func (s *EMState) AddDepTree(tree *DepTree) error {
	s.filterDepTree(tree)
	return s.addInitializedTree(tree)
}

func (s *EMState) addInitializedTree(tree *DepTree) error {
	if err := s.initCounts(tree, nil); err != nil {
		return err
	}
	s.dtrees = append(s.dtrees, tree)
	return nil
}

// logCountSeed returns log(n) in log-neg convention, or +Inf if n is zero.
func logCountSeed(n int) float64 {
	if n == 0 {
		return logmath.Inf
	}
	return math.Log(float64(n))
}

// initCounts implements §4.3.1: seeds each choice's FunStats unigram count
// with a uniform 1/n_choices mass, links each choice to the shared bigram
// cell for every parent choice (creating it with the back-off prior on
// first reference), and seeds that cell's count with a uniform
// 1/(n_choices*n_parent) mass.
func (s *EMState) initCounts(node *DepTree, parentChoices []*SenseChoice) error {
	nChoices := len(node.Choices)
	nParent := len(parentChoices)

	p1 := logCountSeed(nChoices)
	p2 := logmath.Inf
	if nChoices > 0 && nParent > 0 {
		p2 = p1 + math.Log(float64(nParent))
	}

	for _, c := range node.Choices {
		c.Prob = 0
		c.Stats.PC.Count = logmath.Add(c.Stats.PC.Count, p1)

		c.ProbCounts = make([]*ProbCount, nParent)
		for j, pChoice := range parentChoices {
			pc, err := s.getOrCreateBigram(pChoice.Stats, c.Stats.Fun)
			if err != nil {
				return errors.Wrapf(err, "em: initializing counts for node %d", node.Index)
			}
			c.ProbCounts[j] = pc
			pc.Count = logmath.Add(pc.Count, p2)
		}
	}

	for _, child := range node.Children {
		if err := s.initCounts(child, node.Choices); err != nil {
			return err
		}
	}
	return nil
}
