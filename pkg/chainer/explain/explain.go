// Package explain turns the provenance recorded by the knowledge base into
// justification trees, rendered as indented text or as an HTML document.
package explain

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/kb"
)

// Kind tells facts from rules in a tree.
type Kind string

const (
	KindFact Kind = "fact"
	KindRule Kind = "rule"
)

// Node is one fact or rule with the justifications that produced it.
type Node struct {
	Kind     Kind
	Label    string
	Asserted bool
	// Cycle marks an entry already being explained higher up the tree.
	// Its supports are not expanded again.
	Cycle    bool
	Supports []Support
}

// Support is one (rule, fact) justification.
type Support struct {
	Rule *Node
	Fact *Node
}

// Build explains the stored fact id.
func Build(k *kb.KnowledgeBase, id kb.FactID) (*Node, error) {
	f := k.Fact(id)
	if f == nil {
		return nil, errors.Wrapf(internalerr.ErrNotFound, "fact %d", id)
	}
	b := builder{kb: k, onPath: make(map[string]bool)}
	return b.fact(f), nil
}

type builder struct {
	kb     *kb.KnowledgeBase
	onPath map[string]bool
}

func (b *builder) fact(f *kb.Fact) *Node {
	n := &Node{Kind: KindFact, Label: f.String(), Asserted: f.Asserted}
	key := fmt.Sprintf("f%d", f.ID())
	if b.onPath[key] {
		n.Cycle = true
		return n
	}
	b.onPath[key] = true
	defer delete(b.onPath, key)

	for _, e := range b.kb.Supports(f.ID()) {
		n.Supports = append(n.Supports, b.support(e))
	}
	return n
}

func (b *builder) rule(r *kb.Rule) *Node {
	n := &Node{Kind: KindRule, Label: r.String(), Asserted: r.Asserted}
	key := fmt.Sprintf("r%d", r.ID())
	if b.onPath[key] {
		n.Cycle = true
		return n
	}
	b.onPath[key] = true
	defer delete(b.onPath, key)

	for _, e := range b.kb.RuleSupports(r.ID()) {
		n.Supports = append(n.Supports, b.support(e))
	}
	return n
}

func (b *builder) support(e kb.Edge) Support {
	var s Support
	if e.Rule != nil {
		s.Rule = b.rule(e.Rule)
	}
	if e.Fact != nil {
		s.Fact = b.fact(e.Fact)
	}
	return s
}

// Tree renders the explanation of fact id as indented text:
//
//	fact q a
//	  because rule r a -> q a
//	    because rule p ?x & r ?x -> q ?x (asserted)
//	    and fact p a (asserted)
//	  and fact r a (asserted)
func Tree(k *kb.KnowledgeBase, id kb.FactID) (string, error) {
	n, err := Build(k, id)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	writeText(&sb, n, "", 0)
	return sb.String(), nil
}

func writeText(sb *strings.Builder, n *Node, prefix string, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(prefix)
	sb.WriteString(string(n.Kind))
	sb.WriteString(" ")
	sb.WriteString(n.Label)
	if mark := n.mark(); mark != "" {
		sb.WriteString(" (" + mark + ")")
	}
	sb.WriteString("\n")

	for _, s := range n.Supports {
		if s.Rule != nil {
			writeText(sb, s.Rule, "because ", depth+1)
		}
		if s.Fact != nil {
			writeText(sb, s.Fact, "and ", depth+1)
		}
	}
}

// mark is the parenthesized note after a label.
func (n *Node) mark() string {
	var notes []string
	if n.Asserted {
		notes = append(notes, "asserted")
	}
	if n.Cycle {
		notes = append(notes, "cycle")
	}
	return strings.Join(notes, ", ")
}
