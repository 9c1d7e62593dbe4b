package em

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krangelov/wordnet/conll"
	"github.com/krangelov/wordnet/grammar"
	"github.com/krangelov/wordnet/logmath"
)

// s1Grammar builds the toy grammar from the two-sentence convergence
// scenario: functions {run_V, run_N, dog_N} with function priors
// {0.4, 0.1, 0.5} (converted to log-neg) under a single category with
// prior 0.
func s1Grammar() *grammar.Memory {
	return grammar.NewMemory(
		map[string]float64{"C": 0},
		map[string]grammar.FunctionEntry{
			"run_V": {Type: "C", Prior: -math.Log(0.4)},
			"run_N": {Type: "C", Prior: -math.Log(0.1)},
			"dog_N": {Type: "C", Prior: -math.Log(0.5)},
		},
		map[string]map[string][]grammar.MorphoEntry{
			"eng": {
				"dogs": {{Lemma: "dog_N", Analysis: "pl", Prob: 0}},
				"run":  {{Lemma: "run_V", Analysis: "inf", Prob: 0}, {Lemma: "run_N", Analysis: "sg", Prob: 0}},
				"dog":  {{Lemma: "dog_N", Analysis: "sg", Prob: 0}},
			},
		},
	)
}

func rec(id, form, pos, head, label string) conll.Record {
	return conll.Record{id, form, "_", pos, "_", "_", head, label, "_", "_"}
}

func s1Sentences() [][]conll.Record {
	return [][]conll.Record{
		{
			rec("1", "dogs", "_", "2", "nsubj"),
			rec("2", "run", "_", "0", "root"),
		},
		{
			rec("1", "the", "_", "2", "det"),
			rec("2", "dog", "_", "0", "root"),
		},
	}
}

func nodeByForm(tree *DepTree, form string) *DepTree {
	if tree.Record.Form() == form {
		return tree
	}
	for _, c := range tree.Children {
		if found := nodeByForm(c, form); found != nil {
			return found
		}
	}
	return nil
}

func buildS1(t *testing.T) *EMState {
	t.Helper()
	s := NewState(s1Grammar())
	s.SetupPreserveTrees()
	for _, sentence := range s1Sentences() {
		_, err := s.NewConllDepTree("eng", sentence)
		require.NoError(t, err)
	}
	return s
}

func TestS1TwoSentenceConvergence(t *testing.T) {
	s := buildS1(t)
	require.Equal(t, 2, s.BigramCount())
	require.Equal(t, 4, s.UnigramCount())

	for i := 0; i < 5; i++ {
		s.Step()
	}

	runTree := nodeByForm(s.Trees()[0], "run")
	dogsTree := nodeByForm(s.Trees()[0], "dogs")
	dogTree := nodeByForm(s.Trees()[1], "dog")

	assert.Equal(t, "run_V", bestFun(s, s.Trees()[0], runTree))
	assert.Equal(t, "dog_N", bestFun(s, s.Trees()[0], dogsTree))
	assert.Equal(t, "dog_N", bestFun(s, s.Trees()[1], dogTree))
}

func bestFun(s *EMState, tree, node *DepTree) string {
	for _, ann := range s.AnnotateDepTree(tree) {
		if ann.Node == node {
			return ann.Ranked[0].Fun
		}
	}
	return ""
}

func TestMonotoneLikelihood(t *testing.T) {
	s := buildS1(t)
	var prev float64
	for i := 0; i < 5; i++ {
		cur := s.Step()
		if i > 0 {
			assert.LessOrEqual(t, cur, prev+1e-9)
		}
		prev = cur
	}
}

func TestNormalizationDiscipline(t *testing.T) {
	s := buildS1(t)
	s.Step()
	for _, pc := range s.iterAllPCs() {
		assert.True(t, math.IsInf(pc.Count, 1))
	}
}

func TestSingleCellSharing(t *testing.T) {
	s := buildS1(t)
	tree := s.Trees()[0] // run (root) <- dogs (nsubj)
	parent := tree
	child := tree.Children[0]

	for j, pChoice := range parent.Choices {
		for _, cChoice := range child.Choices {
			shared, ok := pChoice.Stats.Mods[cChoice.Stats.Fun]
			require.True(t, ok)
			assert.Same(t, shared, cChoice.ProbCounts[j])
		}
	}
}

func TestPassThroughChild(t *testing.T) {
	g := s1Grammar()
	s := NewState(g)
	s.SetupPreserveTrees()

	sentence := []conll.Record{
		rec("1", "the", "_", "2", "det"),
		rec("2", "dog", "_", "0", "root"),
	}
	tree, err := s.NewConllDepTree("eng", sentence)
	require.NoError(t, err)

	detNode := nodeByForm(tree, "the")
	require.NotNil(t, detNode)
	assert.Empty(t, detNode.Choices)
	require.Equal(t, 1, len(s.stats), "only dog_N should have been created")

	before := len(s.stats)
	sum := s.treeSumEstimation(detNode, logmath.Add)
	assert.True(t, math.IsInf(sum, 1) || sum >= 0)

	s.Step()
	assert.Equal(t, before, len(s.stats), "pass-through modifier must not create a FunStats")
}

func TestRankerFilter(t *testing.T) {
	g := grammar.NewMemory(
		map[string]float64{"V": 0, "N": 0},
		map[string]grammar.FunctionEntry{
			"a_V": {Type: "V", Prior: 0},
			"b_V": {Type: "V", Prior: 0},
			"c_N": {Type: "N", Prior: 0},
		},
		map[string]map[string][]grammar.MorphoEntry{
			"eng": {
				"w": {
					{Lemma: "a_V", Analysis: "x"},
					{Lemma: "b_V", Analysis: "x"},
					{Lemma: "c_N", Analysis: "x"},
				},
			},
		},
	)
	s := NewState(g)
	s.SetRankingCallback("V", func(node *DepTree, choice *SenseChoice) (int, int) {
		if DtreeMatchLabel(node, "root") {
			return 1, 0
		}
		return 0, 0
	})

	sentence := []conll.Record{rec("1", "w", "_", "0", "root")}
	tree, err := s.NewConllDepTree("eng", sentence)
	require.NoError(t, err)

	require.Len(t, tree.Choices, 2)
	for _, c := range tree.Choices {
		assert.Equal(t, "V", mustType(t, g, c.Stats.Fun))
	}
}

func mustType(t *testing.T, g grammar.Grammar, fun string) string {
	t.Helper()
	typ, ok := g.FunctionType(fun)
	require.True(t, ok)
	return typ
}

func TestCaseFallback(t *testing.T) {
	g := grammar.NewMemory(
		map[string]float64{"N": 0},
		map[string]grammar.FunctionEntry{"dog_N": {Type: "N", Prior: 0}},
		map[string]map[string][]grammar.MorphoEntry{
			"eng": {"dogs": {{Lemma: "dog_N", Analysis: "pl"}}},
		},
	)
	s := NewState(g)
	sentence := []conll.Record{rec("1", "Dogs", "_", "0", "root")}
	tree, err := s.NewConllDepTree("eng", sentence)
	require.NoError(t, err)

	require.Len(t, tree.Choices, 1)
	assert.Equal(t, "dog_N", tree.Choices[0].Stats.Fun)
}

func TestAnnotatorTieBreakMarker(t *testing.T) {
	node := &DepTree{
		Choices: []*SenseChoice{
			{Stats: &FunStats{Fun: "a"}, Prob: 0.1},
			{Stats: &FunStats{Fun: "b"}, Prob: 0.1},
			{Stats: &FunStats{Fun: "c"}, Prob: 0.3},
		},
	}
	ann := rankNode(node, []float64{0, 0, 0})
	assert.Equal(t, "a b | c", formatRanked(ann))
}

func TestRankerIdempotence(t *testing.T) {
	g := grammar.NewMemory(
		map[string]float64{"V": 0},
		map[string]grammar.FunctionEntry{
			"a_V": {Type: "V", Prior: 0},
			"b_V": {Type: "V", Prior: 0},
		},
		map[string]map[string][]grammar.MorphoEntry{
			"eng": {"w": {{Lemma: "a_V"}, {Lemma: "b_V"}}},
		},
	)
	s := NewState(g)
	s.SetRankingCallback("V", func(node *DepTree, choice *SenseChoice) (int, int) {
		if choice.Stats.Fun == "a_V" {
			return 1, 0
		}
		return 0, 0
	})

	node := &DepTree{Label: "root", Choices: []*SenseChoice{
		{Stats: s.getOrCreateFun("a_V")},
		{Stats: s.getOrCreateFun("b_V")},
	}}
	s.filterDepTree(node)
	first := len(node.Choices)
	s.filterDepTree(node)
	assert.Equal(t, first, len(node.Choices))
	assert.Equal(t, "a_V", node.Choices[0].Stats.Fun)
}

func TestDtreeMatchHelpers(t *testing.T) {
	s := buildS1(t)
	tree := s.Trees()[0]
	dogsNode := nodeByForm(tree, "dogs")

	assert.True(t, DtreeMatchLabel(tree, "root"))
	assert.False(t, DtreeMatchLabel(dogsNode, "root"))
	assert.True(t, DtreeMatchPOS(tree, "_"))
	assert.True(t, DtreeMatchSameChoice(tree, tree.Choices[0]))
	assert.False(t, DtreeMatchSameChoice(dogsNode, tree.Choices[0]))
}

func TestDebugString(t *testing.T) {
	s := buildS1(t)
	out := s.Trees()[1].DebugString()
	assert.Contains(t, out, "dog_N")
	assert.Contains(t, out, "pass-through")
}

func TestProgrammaticTreeCountsTotals(t *testing.T) {
	s := NewState(s1Grammar())

	root := s.NewDepTree(nil, "run_V", "root", 0, 1)
	s.NewDepTree(root, "dog_N", "nsubj", 1, 0)

	require.NoError(t, s.AddDepTree(root))

	assert.Equal(t, 2, s.UnigramCount())
	assert.Equal(t, 1, s.BigramCount())

	corpusProb := s.Step()
	assert.False(t, math.IsNaN(corpusProb))

	unigramPath := t.TempDir() + "/unigrams.tsv"
	bigramPath := t.TempDir() + "/bigrams.tsv"
	assert.NoError(t, s.Dump(unigramPath, bigramPath))
}

func TestRoundTripDumpLoad(t *testing.T) {
	s := buildS1(t)
	for i := 0; i < 5; i++ {
		s.Step()
	}

	unigramPath := t.TempDir() + "/unigrams.tsv"
	bigramPath := t.TempDir() + "/bigrams.tsv"
	require.NoError(t, s.Dump(unigramPath, bigramPath))

	fresh := NewState(s1Grammar())
	require.NoError(t, fresh.LoadModel(bigramPath))

	for _, fs := range s.stats {
		freshFS, ok := fresh.stats[fs.Fun]
		require.True(t, ok)
		for mod, pc := range fs.Mods {
			val := math.Exp(-pc.Prob) / float64(s.bigramTotal)
			if val*float64(s.bigramTotal) <= 1e-5 {
				continue // Dump drops negligible entries; LoadModel won't see them
			}
			freshPC, ok := freshFS.Mods[mod]
			require.True(t, ok)
			// With bigram smoothing disabled (the default here), LoadModel's
			// back-off blend is a no-op, so the reloaded prob must equal the
			// dumped decimal value to within the %e round-trip's precision,
			// per S4.
			assert.InDelta(t, val, freshPC.Prob, 1e-6)
		}
	}
}
