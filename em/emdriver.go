package em

import (
	"math"

	"github.com/krangelov/wordnet/logmath"
)

// Step runs one EM iteration (§4.7): counts accumulated by the previous
// step (or by tree construction, for the first step) become this step's
// parameters; fresh counts are then accumulated by running inside/outside
// over every tree. The returned corpus_prob is a monitoring figure — its
// leading bigram_total*log(bigram_total) term is a constant offset under a
// fixed treebank, not a normalized log-likelihood, so callers should only
// compare it across consecutive steps on the same corpus, never treat it
// as an absolute probability.
func (s *EMState) Step() float64 {
	for _, pc := range s.pcs {
		pc.Prob = pc.Count
		pc.Count = logmath.Inf
	}

	corpusProb := float64(s.bigramTotal) * math.Log(float64(s.bigramTotal))

	for _, tree := range s.dtrees {
		s.treeEstimation(tree, logmath.Max)

		sum := s.treeSumEstimation(tree, logmath.Add)
		corpusProb += sum

		rootOutside := make([]float64, len(tree.Choices))
		for j := range rootOutside {
			rootOutside[j] = -sum
		}
		s.treeCounting(tree, rootOutside, logmath.Add)
	}

	s.Logger.Info().Float64("corpus_prob", corpusProb).Int("trees", len(s.dtrees)).Msg("em step")
	return corpusProb
}
