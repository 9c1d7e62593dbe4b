package em

import "github.com/pkg/errors"

// ErrNoSentenceRoot is returned by the tree builder when a CoNLL sentence
// contains no token whose head field is "0".
var ErrNoSentenceRoot = errors.New("em: sentence has no token with head \"0\"")
