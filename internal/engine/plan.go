package engine

import (
	"sort"

	"github.com/roach88/harmonizer/internal/ir"
)

// Group is one type group of a node: the rules that together build one
// output record.
type Group struct {
	// Index is the concrete group index, or -1 for the implicit group of a
	// node whose rules are all wildcards.
	Index int
	Rules []*ir.Rule
}

// NodePlan is the ordered list of groups of one node.
type NodePlan struct {
	Node   string
	Groups []Group
}

// Plan is the resolved type-group layout of a transformation. It is built
// once and never modified.
type Plan struct {
	nodes []*NodePlan
	index map[string]*NodePlan
}

// BuildPlan partitions rules by node and resolves their type groups. Nodes
// are ordered by nodeOrder; nodes missing from nodeOrder follow in first
// appearance order.
//
// Wildcard rules are copied into every concrete group of their node unless
// that group defines the same output field itself. A node with only wildcard
// rules has one implicit group.
func BuildPlan(rules []ir.Rule, nodeOrder []string) *Plan {
	byNode := make(map[string][]*ir.Rule)
	var seen []string
	for i := range rules {
		r := &rules[i]
		if _, ok := byNode[r.Node]; !ok {
			seen = append(seen, r.Node)
		}
		byNode[r.Node] = append(byNode[r.Node], r)
	}

	order := make([]string, 0, len(byNode))
	placed := make(map[string]bool, len(byNode))
	for _, n := range nodeOrder {
		if _, ok := byNode[n]; ok && !placed[n] {
			order = append(order, n)
			placed[n] = true
		}
	}
	for _, n := range seen {
		if !placed[n] {
			order = append(order, n)
			placed[n] = true
		}
	}

	p := &Plan{index: make(map[string]*NodePlan, len(order))}
	for _, n := range order {
		np := &NodePlan{Node: n, Groups: planGroups(byNode[n])}
		p.nodes = append(p.nodes, np)
		p.index[n] = np
	}
	return p
}

func planGroups(rules []*ir.Rule) []Group {
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Position < rules[j].Position })

	concrete := make(map[int]map[string]bool)
	for _, r := range rules {
		if r.Group.Wildcard {
			continue
		}
		for _, idx := range r.Group.Indexes {
			if concrete[idx] == nil {
				concrete[idx] = make(map[string]bool)
			}
			concrete[idx][r.OutputField] = true
		}
	}

	if len(concrete) == 0 {
		return []Group{{Index: -1, Rules: rules}}
	}

	indexes := make([]int, 0, len(concrete))
	for idx := range concrete {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	groups := make([]Group, 0, len(indexes))
	for _, idx := range indexes {
		g := Group{Index: idx}
		for _, r := range rules {
			switch {
			case r.Group.Wildcard:
				if !concrete[idx][r.OutputField] {
					g.Rules = append(g.Rules, r)
				}
			case containsInt(r.Group.Indexes, idx):
				g.Rules = append(g.Rules, r)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// Nodes returns the node plans in evaluation order.
func (p *Plan) Nodes() []*NodePlan {
	return p.nodes
}

// Node returns the plan of node.
func (p *Plan) Node(node string) (*NodePlan, bool) {
	np, ok := p.index[node]
	return np, ok
}
