package em

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/krangelov/wordnet/conll"
	"github.com/krangelov/wordnet/grammar"
	"github.com/krangelov/wordnet/logmath"
)

// ensureAllGrammarFunStats seeds a unigram FunStats for every function the
// grammar knows, prob = its grammar prior, count = +Inf — the first step
// of LoadModel.
func (s *EMState) ensureAllGrammarFunStats() error {
	var firstErr error
	s.Grammar.IterFunctions(func(fun string) {
		if firstErr != nil {
			return
		}
		if _, ok := s.stats[fun]; ok {
			return
		}
		p, err := grammar.Prob(s.Grammar, fun)
		if err != nil {
			firstErr = err
			return
		}
		pc := &ProbCount{Prob: p, Count: logmath.Inf}
		s.stats[fun] = &FunStats{Fun: fun, PC: pc, Mods: make(map[string]*ProbCount)}
		s.pcs = append(s.pcs, pc)
	})
	return firstErr
}

// LoadModel loads a previously dumped bigram file (§4.9): tab-separated
// head\tmod\tprob_decimal triples. A head unknown to the grammar, or a
// line with the wrong field count, is fatal; a (head,mod) pair already
// present (e.g. from treebank-driven init_counts) is left untouched.
func (s *EMState) LoadModel(path string) error {
	if err := s.ensureAllGrammarFunStats(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "em: opening model %s", path)
	}
	defer f.Close()

	// The complement of the smoothing mass. When bigramSmoothing is +Inf
	// (disabled), exp(-Inf)=0 and this correctly evaluates to 0, so the
	// loaded probability passes through unblended.
	bigram1m := -math.Log1p(-math.Exp(-s.bigramSmoothing))

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return &conll.MalformedLineError{Line: lineNo, Content: line, Reason: "expected 3 fields"}
		}
		head, mod, probStr := fields[0], fields[1], fields[2]

		headStats, ok := s.stats[head]
		if !ok {
			return &grammar.UnknownFunctionError{Function: head}
		}
		if _, exists := headStats.Mods[mod]; exists {
			continue
		}

		p, err := strconv.ParseFloat(probStr, 64)
		if err != nil {
			return errors.Wrapf(err, "em: parsing probability on line %d", lineNo)
		}

		headProb, err := grammar.Prob(s.Grammar, head)
		if err != nil {
			return err
		}
		modProb, err := grammar.Prob(s.Grammar, mod)
		if err != nil {
			return err
		}
		backOff := headProb + modProb

		pc := &ProbCount{
			Prob:  logmath.Add(s.bigramSmoothing+backOff, bigram1m+p),
			Count: logmath.Inf,
		}
		headStats.Mods[mod] = pc
		s.pcs = append(s.pcs, pc)
	}
	return errors.Wrap(sc.Err(), "em: reading model file")
}

// Dump writes the learned unigram and bigram models (§4.9). Line order in
// both files is sorted by function/category/modifier id so that identical
// inputs produce bitwise-identical output (Testable Property 5). The unigram
// file holds per-function lines followed by per-category lines, with no
// column telling the two apart; a reader classifies each key by checking it
// against the grammar's categories.
func (s *EMState) Dump(unigramPath, bigramPath string) error {
	funIDs := make([]string, 0, len(s.stats))
	for id := range s.stats {
		funIDs = append(funIDs, id)
	}
	sort.Strings(funIDs)

	catProb := make(map[string]float64)
	for _, id := range funIDs {
		fs := s.stats[id]
		cat, ok := s.Grammar.FunctionType(id)
		if !ok {
			continue
		}
		v := logmath.Add(fs.PC.Prob, s.unigramSmoothing)
		if existing, ok := catProb[cat]; ok {
			catProb[cat] = logmath.Add(existing, v)
		} else {
			catProb[cat] = v
		}
	}

	if err := s.dumpUnigrams(unigramPath, funIDs, catProb); err != nil {
		return err
	}
	return s.dumpBigrams(bigramPath, funIDs)
}

func (s *EMState) dumpUnigrams(path string, funIDs []string, catProb map[string]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "em: creating %s", path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	for _, id := range funIDs {
		fs := s.stats[id]
		cat, ok := s.Grammar.FunctionType(id)
		if !ok {
			continue
		}
		denom := logmath.Add(fs.PC.Prob, s.unigramSmoothing)
		val := math.Exp(catProb[cat] - denom)
		if _, err := fmt.Fprintf(w, "%s\t%e\n", id, val); err != nil {
			return errors.Wrap(err, "em: writing unigram file")
		}
	}

	cats := make([]string, 0, len(catProb))
	for cat := range catProb {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		if _, err := fmt.Fprintf(w, "%s\t%e\n", cat, math.Exp(-catProb[cat])); err != nil {
			return errors.Wrap(err, "em: writing category line")
		}
	}
	return errors.Wrap(w.Flush(), "em: flushing unigram file")
}

func (s *EMState) dumpBigrams(path string, funIDs []string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "em: creating %s", path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	for _, id := range funIDs {
		fs := s.stats[id]
		modIDs := make([]string, 0, len(fs.Mods))
		for mod := range fs.Mods {
			modIDs = append(modIDs, mod)
		}
		sort.Strings(modIDs)

		for _, mod := range modIDs {
			pc := fs.Mods[mod]
			val := math.Exp(-pc.Prob) / float64(s.bigramTotal)
			if val*float64(s.bigramTotal) <= 1e-5 {
				continue
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%e\n", id, mod, val); err != nil {
				return errors.Wrap(err, "em: writing bigram file")
			}
		}
	}
	return errors.Wrap(w.Flush(), "em: flushing bigram file")
}
