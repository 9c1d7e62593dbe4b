package grammar

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toyMemory() *Memory {
	return NewMemory(
		map[string]float64{"V": 0, "N": 0},
		map[string]FunctionEntry{
			"run_V": {Type: "V", Prior: -logHalf()},
			"run_N": {Type: "N", Prior: 0},
			"dog_N": {Type: "N", Prior: 0},
		},
		map[string]map[string][]MorphoEntry{
			"eng": {
				"run": {{Lemma: "run_V", Analysis: "inf"}, {Lemma: "run_N", Analysis: "sg"}},
				"dog": {{Lemma: "dog_N", Analysis: "sg"}},
			},
		},
	)
}

func logHalf() float64 { return math.Log(0.5) }

func TestMemoryGetLanguage(t *testing.T) {
	g := toyMemory()
	c, ok := g.GetLanguage("eng")
	require.True(t, ok)
	require.NotNil(t, c)

	_, ok = g.GetLanguage("deu")
	assert.False(t, ok)
}

func TestMemoryLookupMorpho(t *testing.T) {
	g := toyMemory()
	c, _ := g.GetLanguage("eng")

	var lemmas []string
	c.LookupMorpho("run", func(lemma, analysis string, prob float64) {
		lemmas = append(lemmas, lemma)
	})
	assert.ElementsMatch(t, []string{"run_V", "run_N"}, lemmas)

	var none []string
	c.LookupMorpho("cat", func(lemma, analysis string, prob float64) {
		none = append(none, lemma)
	})
	assert.Empty(t, none)
}

func TestMemoryFunctionType(t *testing.T) {
	g := toyMemory()
	typeID, ok := g.FunctionType("dog_N")
	require.True(t, ok)
	assert.Equal(t, "N", typeID)

	_, ok = g.FunctionType("nope")
	assert.False(t, ok)
}

func TestProbUnknownFunction(t *testing.T) {
	g := toyMemory()
	_, err := Prob(g, "missing_fun")
	require.Error(t, err)
	var ufe *UnknownFunctionError
	assert.ErrorAs(t, err, &ufe)
}

func TestNewMemoryFromReader(t *testing.T) {
	doc := `{
		"categories": {"V": 0.0, "N": 0.0},
		"functions": {"dog_N": {"type": "N", "prior": 0.5}},
		"languages": {"eng": {"dog": [{"lemma": "dog_N", "analysis": "sg", "prob": 0}]}}
	}`
	g, err := NewMemoryFromReader(strings.NewReader(doc))
	require.NoError(t, err)

	typeID, ok := g.FunctionType("dog_N")
	require.True(t, ok)
	assert.Equal(t, "N", typeID)
	assert.Equal(t, 0.5, g.FunctionPrior("dog_N"))
}
