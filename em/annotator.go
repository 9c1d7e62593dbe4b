package em

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/krangelov/wordnet/conll"
	"github.com/krangelov/wordnet/logmath"
)

// RankedChoice is one candidate sense at an annotated node, ordered by
// ascending outside+inside score (smaller log-neg = more probable).
type RankedChoice struct {
	Fun   string
	Score float64
}

// NodeAnnotation is the ranked candidate list for one DepTree node.
// TieBreak is the number of leading entries in Ranked that tie for best
// (by exact score equality); entries from TieBreak onward are strictly
// worse and, when formatted, separated from the tying group by " | ".
type NodeAnnotation struct {
	Node     *DepTree
	Ranked   []RankedChoice
	TieBreak int
}

// AnnotateDepTree runs Viterbi-style inside/outside over tree (without
// mutating any ProbCount — unlike Step, this is a read-only query) and
// returns the ranked candidate list for every node that has choices.
func (s *EMState) AnnotateDepTree(tree *DepTree) []NodeAnnotation {
	s.treeEstimation(tree, logmath.Max)
	max := s.treeSumEstimation(tree, logmath.Max)

	rootOutside := make([]float64, len(tree.Choices))
	for j := range rootOutside {
		rootOutside[j] = -max
	}

	var out []NodeAnnotation
	s.annotateWalk(tree, rootOutside, &out)
	return out
}

func (s *EMState) annotateWalk(node *DepTree, outsideProbs []float64, out *[]NodeAnnotation) {
	if len(node.Choices) > 0 {
		*out = append(*out, rankNode(node, outsideProbs))
	}
	for _, child := range node.Children {
		childOutside := s.childOutsideProbs(node, child, outsideProbs, logmath.Max, false)
		s.annotateWalk(child, childOutside, out)
	}
}

func rankNode(node *DepTree, outsideProbs []float64) NodeAnnotation {
	type scored struct {
		idx   int
		score float64
	}
	scoredList := make([]scored, len(node.Choices))
	for j := range node.Choices {
		scoredList[j] = scored{j, outsideProbs[j] + node.Choices[j].Prob}
	}
	sort.SliceStable(scoredList, func(a, b int) bool { return scoredList[a].score < scoredList[b].score })

	ranked := make([]RankedChoice, len(scoredList))
	best := scoredList[0].score
	tieBreak := len(scoredList)
	for i, sc := range scoredList {
		ranked[i] = RankedChoice{Fun: node.Choices[sc.idx].Stats.Fun, Score: sc.score}
		if tieBreak == len(scoredList) && sc.score > best {
			tieBreak = i
		}
	}
	return NodeAnnotation{Node: node, Ranked: ranked, TieBreak: tieBreak}
}

func formatRanked(ann NodeAnnotation) string {
	if len(ann.Ranked) == 0 {
		return "_"
	}
	best := make([]string, 0, ann.TieBreak)
	for _, r := range ann.Ranked[:ann.TieBreak] {
		best = append(best, r.Fun)
	}
	if ann.TieBreak == len(ann.Ranked) {
		return strings.Join(best, " ")
	}
	rest := make([]string, 0, len(ann.Ranked)-ann.TieBreak)
	for _, r := range ann.Ranked[ann.TieBreak:] {
		rest = append(rest, r.Fun)
	}
	return strings.Join(best, " ") + " | " + strings.Join(rest, " ")
}

func collectNodes(node *DepTree, out *[]*DepTree) {
	*out = append(*out, node)
	for _, c := range node.Children {
		collectNodes(c, out)
	}
}

var zeroRecord conll.Record

// ExportAnnotatedTreebank writes every registered tree's annotation as a
// CoNLL-like treebank to path (or stdout if path is empty): original
// fields verbatim when SetupPreserveTrees was called, "_" placeholders
// otherwise, plus a final column with the ranked candidate functions.
func (s *EMState) ExportAnnotatedTreebank(path string) error {
	w := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "em: creating %s", path)
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	for _, tree := range s.dtrees {
		if err := s.writeAnnotatedSentence(bw, tree); err != nil {
			return err
		}
	}
	return errors.Wrap(bw.Flush(), "em: flushing annotated treebank")
}

func (s *EMState) writeAnnotatedSentence(bw *bufio.Writer, tree *DepTree) error {
	annotations := s.AnnotateDepTree(tree)
	byIndex := make(map[int]NodeAnnotation, len(annotations))
	for _, a := range annotations {
		byIndex[a.Node.Index] = a
	}

	var nodes []*DepTree
	collectNodes(tree, &nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Index < nodes[j].Index })

	for _, n := range nodes {
		if err := writeAnnotatedLine(bw, n, byIndex[n.Index]); err != nil {
			return err
		}
	}
	_, err := bw.WriteString("\n")
	return errors.Wrap(err, "em: writing sentence boundary")
}

func writeAnnotatedLine(w *bufio.Writer, n *DepTree, ann NodeAnnotation) error {
	fields := make([]string, conll.NumFields)
	if n.Record != zeroRecord {
		copy(fields, n.Record[:])
	} else {
		for i := range fields {
			fields[i] = "_"
		}
	}
	line := fmt.Sprintf("%s\t%s\n", strings.Join(fields, "\t"), formatRanked(ann))
	_, err := w.WriteString(line)
	return errors.Wrap(err, "em: writing annotated line")
}
