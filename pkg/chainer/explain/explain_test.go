package explain

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/kb"
	"github.com/cognicore/chainer/pkg/chainer/term"
)

func joinKB(t *testing.T) (*kb.KnowledgeBase, kb.FactID) {
	t.Helper()
	k := kb.New()
	require.NoError(t, k.AddRule(kb.NewRule(
		[]term.Predicate{term.NewPredicate("p", "?x"), term.NewPredicate("r", "?x")},
		term.NewPredicate("q", "?x"),
	)))
	require.NoError(t, k.AddFacts(
		kb.NewFact(term.NewPredicate("p", "a")),
		kb.NewFact(term.NewPredicate("r", "a")),
	))
	q, ok := k.LookupFact(term.NewPredicate("q", "a"))
	require.True(t, ok)
	return k, q.ID()
}

func TestTree(t *testing.T) {
	k, id := joinKB(t)

	got, err := Tree(k, id)
	require.NoError(t, err)

	want := `fact q a
  because rule r a -> q a
    because rule p ?x & r ?x -> q ?x (asserted)
    and fact p a (asserted)
  and fact r a (asserted)
`
	assert.Equal(t, want, got)
}

func TestTreeAssertedLeaf(t *testing.T) {
	k, _ := joinKB(t)
	p, _ := k.LookupFact(term.NewPredicate("p", "a"))

	got, err := Tree(k, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "fact p a (asserted)\n", got)
}

func TestTreeCutsCycles(t *testing.T) {
	k := kb.New()
	require.NoError(t, k.AddRule(kb.NewRule(
		[]term.Predicate{term.NewPredicate("p", "?x")},
		term.NewPredicate("p", "?x"),
	)))
	require.NoError(t, k.AddFact(kb.NewFact(term.NewPredicate("p", "a"))))

	got, err := Tree(k, 1)
	require.NoError(t, err)

	want := `fact p a (asserted)
  because rule p ?x -> p ?x (asserted)
  and fact p a (asserted, cycle)
`
	assert.Equal(t, want, got)
}

func TestTreeMissingFact(t *testing.T) {
	_, err := Tree(kb.New(), 7)
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))
}

func TestRenderHTML(t *testing.T) {
	k, id := joinKB(t)

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, k, id))

	out := buf.String()
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>Why q a</title>")
	assert.Contains(t, out, `<span class="fact">q a</span>`)
	assert.Contains(t, out, `<span class="rule">p ?x &amp; r ?x -&gt; q ?x</span>`)

	doc, err := html.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, 5, countElements(doc, "li"))
}

func TestRenderHTMLMissingFact(t *testing.T) {
	var buf bytes.Buffer
	err := RenderHTML(&buf, kb.New(), 1)
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))
	assert.Zero(t, buf.Len())
}

func countElements(n *html.Node, tag string) int {
	count := 0
	if n.Type == html.ElementNode && n.Data == tag {
		count++
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countElements(c, tag)
	}
	return count
}
