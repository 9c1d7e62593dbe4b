package em

// Ranker scores a candidate choice at node, returning (primary, secondary).
// The node retains only the choices whose pair is componentwise best:
// maximum primary, then minimum secondary among those.
type Ranker func(node *DepTree, choice *SenseChoice) (primary, secondary int)

// DtreeMatchLabel reports whether node's dependency label equals label —
// a predicate Ranker callbacks use to dispatch on syntactic context (e.g.
// "is this the root edge").
func DtreeMatchLabel(node *DepTree, label string) bool {
	return node.Label == label
}

// DtreeMatchPOS reports whether node's POS tag equals pos.
func DtreeMatchPOS(node *DepTree, pos string) bool {
	return node.POS == pos
}

// DtreeMatchSameChoice reports whether any of node's current choices
// resolves to the same FunStats cell as choice — pointer identity, not
// just equal function ids, matching invariant 1's notion of cell sharing.
func DtreeMatchSameChoice(node *DepTree, choice *SenseChoice) bool {
	for _, c := range node.Choices {
		if c.Stats == choice.Stats {
			return true
		}
	}
	return false
}

// filterDepTree applies the registered Ranker callbacks top-down, in
// place, preserving the relative order of the choices that survive.
func (s *EMState) filterDepTree(node *DepTree) {
	if len(node.Choices) > 0 {
		node.Choices = s.rankChoices(node)
	}
	for _, child := range node.Children {
		s.filterDepTree(child)
	}
}

func (s *EMState) rankChoices(node *DepTree) []*SenseChoice {
	primary := make([]int, len(node.Choices))
	secondary := make([]int, len(node.Choices))

	for i, c := range node.Choices {
		if cat, ok := s.Grammar.FunctionType(c.Stats.Fun); ok {
			if cb, ok := s.callbacks[cat]; ok {
				primary[i], secondary[i] = cb(node, c)
			}
		}
	}

	bestPrimary := primary[0]
	for _, p := range primary[1:] {
		if p > bestPrimary {
			bestPrimary = p
		}
	}

	bestSecondary := 0
	first := true
	for i, p := range primary {
		if p != bestPrimary {
			continue
		}
		if first || secondary[i] < bestSecondary {
			bestSecondary = secondary[i]
			first = false
		}
	}

	kept := make([]*SenseChoice, 0, len(node.Choices))
	for i, c := range node.Choices {
		if primary[i] == bestPrimary && secondary[i] == bestSecondary {
			kept = append(kept, c)
		}
	}
	return kept
}
