package em

import (
	"github.com/krangelov/wordnet/grammar"
	"github.com/krangelov/wordnet/logmath"
)

// getOrCreateFun returns the FunStats for id, creating it on first
// reference with a fresh unigram ProbCount (prob=0, count=+Inf) pushed
// into pcs.
func (s *EMState) getOrCreateFun(id string) *FunStats {
	if fs, ok := s.stats[id]; ok {
		return fs
	}
	pc := &ProbCount{Prob: 0, Count: logmath.Inf}
	fs := &FunStats{Fun: id, PC: pc, Mods: make(map[string]*ProbCount)}
	s.stats[id] = fs
	s.pcs = append(s.pcs, pc)
	return fs
}

// getOrCreateBigram returns the shared ProbCount for (headStats.Fun, modID),
// creating it with the back-off prior (grammar_prob(head) + grammar_prob(mod),
// blended with bigram smoothing) on first reference.
func (s *EMState) getOrCreateBigram(headStats *FunStats, modID string) (*ProbCount, error) {
	if pc, ok := headStats.Mods[modID]; ok {
		return pc, nil
	}

	headProb, err := grammar.Prob(s.Grammar, headStats.Fun)
	if err != nil {
		return nil, err
	}
	modProb, err := grammar.Prob(s.Grammar, modID)
	if err != nil {
		return nil, err
	}

	pc := &ProbCount{
		Prob:  s.bigramSmoothing + headProb + modProb,
		Count: logmath.Inf,
	}
	headStats.Mods[modID] = pc
	s.pcs = append(s.pcs, pc)
	return pc, nil
}

// iterAllPCs returns every ProbCount cell owned by this state.
func (s *EMState) iterAllPCs() []*ProbCount {
	return s.pcs
}
