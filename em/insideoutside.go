package em

import (
	"math"

	"github.com/krangelov/wordnet/logmath"
)

// treeEstimation is the inside pass (§4.6): post-order over the tree,
// filling choice.Prob at every node with choices. Pass-through nodes (empty
// Choices) are skipped here — their mass is only ever consumed through
// treeSumEstimation/treeEdgeEstimation.
func (s *EMState) treeEstimation(node *DepTree, combine logmath.Combiner) {
	for _, child := range node.Children {
		s.treeEstimation(child, combine)
	}
	if len(node.Choices) == 0 {
		return
	}
	for i, choice := range node.Choices {
		sum := 0.0 // log-neg identity of ordinary multiplication (probability 1)
		for _, child := range node.Children {
			sum += s.treeEdgeEstimation(i, child, combine)
		}
		choice.Prob = sum
	}
}

// treeEdgeEstimation is the contribution of child's subtree under parent
// choice index i (§4.6). A pass-through child with no descendant choices
// contributes no penalty (edge = 0, probability 1).
func (s *EMState) treeEdgeEstimation(i int, child *DepTree, combine logmath.Combiner) float64 {
	if len(child.Choices) == 0 {
		sum := s.treeSumEstimation(child, combine)
		if math.IsInf(sum, 1) {
			return 0
		}
		return sum
	}

	edge := logmath.Inf
	for _, k := range child.Choices {
		pc := k.ProbCounts[i]
		edge = combine(edge, pc.Prob+k.Prob)
	}
	return edge
}

// treeSumEstimation is the tree-level inside mass under combine (§4.6): the
// ⊕-combination of a choice node's own choice.Prob values, or the ordinary
// sum of a pass-through node's children's sums.
func (s *EMState) treeSumEstimation(node *DepTree, combine logmath.Combiner) float64 {
	if len(node.Choices) == 0 {
		sum := 0.0
		for _, child := range node.Children {
			sum += s.treeSumEstimation(child, combine)
		}
		return sum
	}

	sum := logmath.Inf
	for _, choice := range node.Choices {
		sum = combine(sum, choice.Prob)
	}
	return sum
}

// treeCounting is the outside/counting pass (§4.7.1): given the inherited
// outsideProbs for node's own choices, it accumulates expected counts into
// every unigram and bigram ProbCount the node and its subtree touch. combine
// is used for edge re-estimation and for combining the children's outside
// probabilities; the counts themselves are always accumulated with
// logmath.Add. Step passes logmath.Add. The annotator does not call this
// routine: it walks the tree with childOutsideProbs under logmath.Max and
// accumulate=false (see annotator.go).
func (s *EMState) treeCounting(node *DepTree, outsideProbs []float64, combine logmath.Combiner) {
	if len(node.Choices) > 0 {
		for j, choice := range node.Choices {
			choice.Stats.PC.Count = logmath.Add(choice.Stats.PC.Count, outsideProbs[j]+choice.Prob)
		}
	}

	for _, child := range node.Children {
		childOutside := s.childOutsideProbs(node, child, outsideProbs, combine, true)
		s.treeCounting(child, childOutside, combine)
	}
}

// childOutsideProbs computes the outside probabilities inherited by child
// given head's own outsideProbs. When accumulate is true, it also folds
// the per-edge contribution into each touched bigram ProbCount's Count
// (the EM accumulation side-effect); annotation call sites pass false.
func (s *EMState) childOutsideProbs(head, child *DepTree, outsideProbs []float64, combine logmath.Combiner, accumulate bool) []float64 {
	childOutside := make([]float64, len(child.Choices))

	if len(head.Choices) == 0 {
		v := -s.treeSumEstimation(child, combine)
		for k := range childOutside {
			childOutside[k] = v
		}
		return childOutside
	}

	for k := range childOutside {
		childOutside[k] = logmath.Inf
	}

	for j, choice := range head.Choices {
		if math.IsInf(choice.Prob, 1) {
			continue
		}
		edge := s.treeEdgeEstimation(j, child, combine)
		f := outsideProbs[j] + choice.Prob - edge

		for k, childChoice := range child.Choices {
			pc := childChoice.ProbCounts[j]
			childOutside[k] = combine(childOutside[k], f+pc.Prob)
			if accumulate {
				pc.Count = logmath.Add(pc.Count, f+pc.Prob+childChoice.Prob)
			}
		}
	}
	return childOutside
}
