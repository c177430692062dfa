package descriptor

// Shallower returns a copy of n with the deepest level of nodes removed.
// A node left with no arguments, or only empty groups, becomes
// unparameterized. It reports false for a bare leaf.
func Shallower(n *Node) (*Node, bool) {
	depth := n.Depth()
	if depth <= 1 {
		return n, false
	}
	return trimAt(n, 1, depth), true
}

// Approximations lists n followed by each successively shallower tree,
// ending with the bare origin.
func Approximations(n *Node) []*Node {
	out := []*Node{n}
	for cur := n; ; {
		next, ok := Shallower(cur)
		if !ok {
			return out
		}
		out = append(out, next)
		cur = next
	}
}

func trimAt(n *Node, level, deepest int) *Node {
	if n.Args == nil {
		return n
	}
	out := &Node{Origin: n.Origin}
	kept := false
	for _, a := range n.Args {
		if a.Grouped {
			group := []*Node{}
			for _, g := range a.Group {
				if level+1 < deepest {
					group = append(group, trimAt(g, level+1, deepest))
				}
			}
			out.Args = append(out.Args, Group(group...))
			if len(group) > 0 {
				kept = true
			}
			continue
		}
		if level+1 == deepest {
			continue
		}
		out.Args = append(out.Args, Single(trimAt(a.Node, level+1, deepest)))
		kept = true
	}
	if !kept {
		out.Args = nil
	}
	return out
}
