// Command wordnet-train loads a grammar lexicon and a CoNLL treebank, runs
// a fixed number of EM iterations, and dumps the learned unigram/bigram
// model files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/krangelov/wordnet/em"
	"github.com/krangelov/wordnet/grammar"
)

var (
	iterations     = flag.Int("iterations", 10, "number of EM iterations to run")
	language       = flag.String("lang", "eng", "language tag to resolve against the grammar")
	unigramSmooth  = flag.Float64("unigram-smoothing", 0, "unigram smoothing pseudocount (0 disables)")
	bigramSmooth   = flag.Float64("bigram-smoothing", 0, "bigram smoothing prior probability in (0,1] (0 disables)")
	preserveFields = flag.Bool("preserve-fields", true, "retain original CoNLL fields for later annotation")
	verbose        = flag.Bool("v", false, "enable debug logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] lexicon.json treebank.conll unigrams.tsv bigrams.tsv\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	lexiconPath := flag.Arg(0)
	treebankPath := flag.Arg(1)
	unigramOut := flag.Arg(2)
	bigramOut := flag.Arg(3)
	if lexiconPath == "" || treebankPath == "" || unigramOut == "" || bigramOut == "" {
		flag.Usage()
		os.Exit(1)
	}

	g, err := grammar.NewMemoryFromFile(lexiconPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading lexicon")
	}

	state := em.NewState(g)
	state.Logger = logger
	if *preserveFields {
		state.SetupPreserveTrees()
	}
	if *unigramSmooth > 0 {
		state.SetupUnigramSmoothing(int(*unigramSmooth))
	}
	if *bigramSmooth > 0 {
		state.SetupBigramSmoothing(*bigramSmooth)
	}

	if err := state.ImportTreebank(treebankPath, *language); err != nil {
		log.Fatal().Err(err).Msg("importing treebank")
	}

	for i := 0; i < *iterations; i++ {
		corpusProb := state.Step()
		logger.Info().Int("iteration", i+1).Float64("corpus_prob", corpusProb).Msg("em step")
	}

	if err := state.Dump(unigramOut, bigramOut); err != nil {
		log.Fatal().Err(err).Msg("dumping model")
	}
	logger.Info().
		Int("unigrams", state.UnigramCount()).
		Int("bigrams", state.BigramCount()).
		Msg("training complete")
}
