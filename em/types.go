package em

import "github.com/krangelov/wordnet/conll"

// ProbCount is a mutable parameter cell: a current log-neg probability and
// an accumulator for the next iteration's expected count. A cell is owned
// by exactly one FunStats (as its unigram pc, or as a bigram entry in
// Mods) and referenced, never owned, from every SenseChoice.ProbCounts
// entry that points at it and from EMState's flat pcs list.
type ProbCount struct {
	Prob  float64
	Count float64
}

// FunStats holds the unigram ProbCount for one abstract function symbol
// (sense) and the bigram ProbCount for every modifier function ever seen
// under it as a head. Created lazily on first reference and kept for the
// life of the EMState.
type FunStats struct {
	Fun  string
	PC   *ProbCount
	Mods map[string]*ProbCount
}

// SenseChoice is one candidate sense at a tree node. ProbCounts is aligned
// to the parent node's Choices: ProbCounts[j] is the shared bigram cell for
// (parent.Choices[j]'s function, this choice's function) — the same
// pointer reachable via parent's FunStats.Mods.
type SenseChoice struct {
	Stats      *FunStats
	Prob       float64
	ProbCounts []*ProbCount
}

// DepTree is one node of a dependency tree. Index is the node's stable,
// zero-based position in its sentence. Record carries the originating
// CoNLL fields when the caller requested preservation (SetupPreserveTrees);
// otherwise it is the zero Record and annotation emits "_" placeholders.
// An empty Choices set marks a pass-through node (invariant 4): it
// contributes no unigram/bigram counts of its own, only those of its
// subtrees.
type DepTree struct {
	Index    int
	Label    string
	POS      string
	Record   conll.Record
	Choices  []*SenseChoice
	Children []*DepTree
}
