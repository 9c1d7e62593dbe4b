// Package grammar defines the probabilistic-grammar collaborator the EM
// engine consults for morphological lookup and for the priors used to seed
// back-off bigram estimates. The grammar runtime itself (category typing,
// morphological analysis of surface forms) is an external concern — this
// package only fixes the interface the em package programs against, plus a
// small in-memory reference implementation for tests and the CLI demo.
package grammar

// MorphoCallback receives one candidate analysis of a surface form: the
// lemma (abstract function symbol), an opaque analysis tag the core ignores,
// and the log-neg prior probability of that analysis.
type MorphoCallback func(lemma, analysis string, prob float64)

// Concrete is a language-specific view of a Grammar, able to resolve surface
// word forms to candidate lemmas.
type Concrete interface {
	// LookupMorpho invokes cb once per candidate analysis of surface. It may
	// invoke cb zero times if the surface form is unknown.
	LookupMorpho(surface string, cb MorphoCallback)
}

// Grammar is the probabilistic grammar collaborator (§6 of the spec): it
// knows every abstract function symbol, its syntactic category and priors,
// and can resolve a language tag to a Concrete for morphological lookup.
type Grammar interface {
	// GetLanguage resolves a language tag to its Concrete, or ok=false if
	// the grammar has no concrete syntax for that language.
	GetLanguage(tag string) (c Concrete, ok bool)

	// FunctionType returns the category id of an abstract function symbol,
	// or ok=false if the function is unknown to the grammar.
	FunctionType(fun string) (typeID string, ok bool)

	// CategoryPrior returns the log-neg prior probability of a category.
	CategoryPrior(cat string) float64

	// FunctionPrior returns the log-neg prior probability of a function
	// symbol within its category.
	FunctionPrior(fun string) float64

	// IterFunctions invokes cb once for every function symbol known to the
	// grammar.
	IterFunctions(cb func(fun string))
}

// Prob returns the grammar's combined log-neg prior for fun: the prior of
// its category plus its own prior within that category. It is a fatal
// condition (UnknownFunction) for fun to be absent from the grammar — every
// function referenced by a corpus or a loaded model must be known to it.
func Prob(g Grammar, fun string) (float64, error) {
	typeID, ok := g.FunctionType(fun)
	if !ok {
		return 0, &UnknownFunctionError{Function: fun}
	}
	return g.CategoryPrior(typeID) + g.FunctionPrior(fun), nil
}
