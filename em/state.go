// Package em implements the EM inference engine: inside/outside estimation
// over dependency trees with shared bigram accumulators, back-off smoothing,
// and per-iteration parameter updates. It consumes pre-parsed CoNLL records
// (see the conll package) and a Grammar collaborator (see the grammar
// package) and never parses raw text or decides tree structure itself.
package em

import (
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/krangelov/wordnet/conll"
	"github.com/krangelov/wordnet/grammar"
	"github.com/krangelov/wordnet/logmath"
)

// EMState is the root object: it owns every DepTree, FunStats and
// ProbCount built against one Grammar. It is not safe for concurrent use —
// callers must not invoke Step and the Annotator methods concurrently on
// the same state.
type EMState struct {
	Grammar grammar.Grammar
	Logger  zerolog.Logger

	// BreakTrees is reserved for future tree-splitting behavior. The core
	// never reads it; it exists only so callers have a place to record the
	// intent until that behavior is designed.
	BreakTrees bool

	dtrees        []*DepTree
	preserveTrees bool

	stats map[string]*FunStats
	pcs   []*ProbCount

	bigramTotal  int
	unigramTotal int

	unigramSmoothing float64
	bigramSmoothing  float64

	callbacks map[string]Ranker
}

// NewState creates an EMState bound to g. Smoothing is disabled (+Inf)
// until SetupUnigramSmoothing/SetupBigramSmoothing are called.
func NewState(g grammar.Grammar) *EMState {
	return &EMState{
		Grammar:          g,
		Logger:           zerolog.Nop(),
		stats:            make(map[string]*FunStats),
		unigramSmoothing: logmath.Inf,
		bigramSmoothing:  logmath.Inf,
		callbacks:        make(map[string]Ranker),
	}
}

// SetupPreserveTrees requests that original CoNLL fields be retained on
// each DepTree, so ExportAnnotatedTreebank can emit them verbatim instead
// of "_" placeholders.
func (s *EMState) SetupPreserveTrees() {
	s.preserveTrees = true
}

// SetupUnigramSmoothing seeds every grammar-known function with a pseudo
// count of count and enables the unigram smoothing constant used by Dump.
// Only FunStats created by this call are seeded — one already built from a
// treebank (or an earlier call) is left untouched, matching smoothing_iter's
// creation-only seeding in the original.
func (s *EMState) SetupUnigramSmoothing(count int) {
	s.unigramSmoothing = -math.Log(float64(count))
	s.Grammar.IterFunctions(func(fun string) {
		if _, existed := s.stats[fun]; existed {
			return
		}
		fs := s.getOrCreateFun(fun)
		fs.PC.Count = logmath.Add(fs.PC.Count, s.unigramSmoothing)
		s.unigramTotal += count
	})
}

// SetupBigramSmoothing enables the back-off blend used by getOrCreateBigram
// and LoadModel. Its effect is otherwise latent until those are exercised.
func (s *EMState) SetupBigramSmoothing(prob float64) {
	s.bigramSmoothing = -math.Log(prob)
}

// SetRankingCallback registers r as the Ranker consulted for every
// candidate sense whose grammar category is cat.
func (s *EMState) SetRankingCallback(cat string, r Ranker) {
	s.callbacks[cat] = r
}

// UnigramCount returns the running count of tokens counted across every
// tree built so far.
func (s *EMState) UnigramCount() int { return s.unigramTotal }

// BigramCount returns the running count of parent-child edges counted
// across every tree built so far.
func (s *EMState) BigramCount() int { return s.bigramTotal }

// Trees returns every DepTree registered on this state, in insertion order.
func (s *EMState) Trees() []*DepTree { return s.dtrees }

// ImportTreebank reads a CoNLL treebank from path (or stdin if path is
// empty), building and registering one DepTree per sentence against
// language. It stops and returns the first build or parse error.
func (s *EMState) ImportTreebank(path, language string) error {
	var r io.Reader
	if path == "" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "em: opening treebank %s", path)
		}
		defer f.Close()
		r = f
	}

	count := 0
	err := conll.Read(r, func(sentence []conll.Record) error {
		if _, err := s.NewConllDepTree(language, sentence); err != nil {
			return err
		}
		count++
		return nil
	})
	s.Logger.Debug().Int("sentences", count).Str("path", path).Msg("imported treebank")
	return err
}
