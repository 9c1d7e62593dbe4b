package grammar

import "fmt"

// UnknownLanguageError is returned when a requested language tag has no
// concrete syntax in the grammar.
type UnknownLanguageError struct {
	Language string
}

func (e *UnknownLanguageError) Error() string {
	return fmt.Sprintf("grammar: unknown language %q", e.Language)
}

// UnknownFunctionError is returned (or, per the spec, treated as fatal) when
// a back-off prior is requested for a function symbol the grammar does not
// know. The corpus and any loaded model must only refer to functions the
// grammar can type.
type UnknownFunctionError struct {
	Function string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("grammar: unknown function %q", e.Function)
}
