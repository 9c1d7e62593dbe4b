// Command wordnet-annotate loads a grammar lexicon, a previously trained
// bigram model, and a CoNLL treebank, then exports the Viterbi-annotated
// treebank with ranked sense candidates per token.
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
	language     = flag.String("lang", "eng", "language tag to resolve against the grammar")
	bigramSmooth = flag.Float64("bigram-smoothing", 0, "bigram smoothing prior probability in (0,1], must match training (0 disables)")
	verbose      = flag.Bool("v", false, "enable debug logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] lexicon.json bigrams.tsv treebank.conll output.conll\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	lexiconPath := flag.Arg(0)
	bigramPath := flag.Arg(1)
	treebankPath := flag.Arg(2)
	outPath := flag.Arg(3)
	if lexiconPath == "" || bigramPath == "" || treebankPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	g, err := grammar.NewMemoryFromFile(lexiconPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading lexicon")
	}

	state := em.NewState(g)
	state.Logger = logger
	state.SetupPreserveTrees()
	if *bigramSmooth > 0 {
		state.SetupBigramSmoothing(*bigramSmooth)
	}

	if err := state.LoadModel(bigramPath); err != nil {
		log.Fatal().Err(err).Msg("loading bigram model")
	}
	if err := state.ImportTreebank(treebankPath, *language); err != nil {
		log.Fatal().Err(err).Msg("importing treebank")
	}

	if logger.GetLevel() <= zerolog.DebugLevel {
		for _, tree := range state.Trees() {
			logger.Debug().Msg(tree.DebugString())
		}
	}

	if err := state.ExportAnnotatedTreebank(outPath); err != nil {
		log.Fatal().Err(err).Msg("exporting annotated treebank")
	}
	logger.Info().Int("sentences", len(state.Trees())).Msg("annotation complete")
}
