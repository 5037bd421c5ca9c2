package explain

import (
	"io"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cognicore/chainer/pkg/chainer/kb"
)

// RenderHTML writes the explanation of fact id as a standalone HTML page
// of nested lists.
func RenderHTML(w io.Writer, k *kb.KnowledgeBase, id kb.FactID) error {
	n, err := Build(k, id)
	if err != nil {
		return err
	}
	if err := html.Render(w, Document(n)); err != nil {
		return errors.Wrap(err, "render explanation")
	}
	return nil
}

// Document builds the HTML tree for n.
func Document(n *Node) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	head := element(atom.Head)
	title := element(atom.Title)
	title.AppendChild(text("Why " + n.Label))
	head.AppendChild(title)
	root.AppendChild(head)

	body := element(atom.Body)
	list := element(atom.Ul)
	list.AppendChild(item(n, ""))
	body.AppendChild(list)
	root.AppendChild(body)

	doc.AppendChild(root)
	return doc
}

func item(n *Node, prefix string) *html.Node {
	li := element(atom.Li)
	if prefix != "" {
		li.AppendChild(text(prefix))
	}

	label := element(atom.Span, html.Attribute{Key: "class", Val: string(n.Kind)})
	label.AppendChild(text(n.Label))
	li.AppendChild(label)

	if mark := n.mark(); mark != "" {
		note := element(atom.Em)
		note.AppendChild(text(" (" + mark + ")"))
		li.AppendChild(note)
	}

	if len(n.Supports) == 0 {
		return li
	}
	sub := element(atom.Ul)
	for _, s := range n.Supports {
		if s.Rule != nil {
			sub.AppendChild(item(s.Rule, "because "))
		}
		if s.Fact != nil {
			sub.AppendChild(item(s.Fact, "and "))
		}
	}
	li.AppendChild(sub)
	return li
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
