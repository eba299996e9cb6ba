// Package pnml reads and writes nets in the PNML interchange format.
//
// The reader is deliberately tolerant: it ignores XML namespaces and
// accepts places, transitions and arcs at any page nesting depth, skipping
// graphics and tool-specific baggage. It is strict about semantics: the
// net must be one-safe, so initial markings above one token and arc
// weights above one are rejected. The writer emits a canonical single-page
// document that the reader round-trips.
package pnml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pnspace/go-pnspace/petrinet"
)

var (
	ErrNoNet      = errors.New("document contains no net element")
	ErrNotOneSafe = errors.New("initial marking is not one-safe")
	ErrArcWeight  = errors.New("arc weight above one is not supported")
)

// node is a tolerant view of one XML element: any name, any namespace,
// children kept in document order.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []node     `xml:",any"`
	Text    string     `xml:",chardata"`
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// first returns n or its first descendant with the given local name, in
// document order.
func (n *node) first(local string) *node {
	if n.XMLName.Local == local {
		return n
	}
	for i := range n.Nodes {
		if found := n.Nodes[i].first(local); found != nil {
			return found
		}
	}
	return nil
}

// collect gathers every descendant with the given local name.
func (n *node) collect(local string, out []*node) []*node {
	for i := range n.Nodes {
		child := &n.Nodes[i]
		if child.XMLName.Local == local {
			out = append(out, child)
			continue
		}
		out = child.collect(local, out)
	}
	return out
}

// valueOf returns the trimmed text of the first wrapper descendant,
// honoring the usual <wrapper><text>...</text></wrapper> shape with a
// fallback to bare character data.
func (n *node) valueOf(wrapper string) string {
	w := n.first(wrapper)
	if w == nil || w == n {
		return ""
	}
	if tx := w.first("text"); tx != nil {
		return strings.TrimSpace(tx.Text)
	}
	return strings.TrimSpace(w.Text)
}

// Parse decodes a PNML document into a net. The first net element in the
// document is used; further nets are ignored. Place identity is the PNML
// id attribute, since arcs reference ids. Transition names are taken from
// the name label when one is present.
func Parse(data []byte) (*petrinet.Net, error) {
	var root node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("pnml: %w", err)
	}
	netNode := root.first("net")
	if netNode == nil {
		return nil, fmt.Errorf("pnml: %w", ErrNoNet)
	}

	b := petrinet.Build()
	for _, p := range netNode.collect("place", nil) {
		id := p.attr("id")
		if id == "" {
			return nil, errors.New("pnml: place without id attribute")
		}
		tokens := 0
		if s := p.valueOf("initialMarking"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("pnml: place %q: initial marking %q: %w", id, s, err)
			}
			tokens = v
		}
		if tokens < 0 || tokens > 1 {
			return nil, fmt.Errorf("pnml: place %q holds %d tokens: %w", id, tokens, ErrNotOneSafe)
		}
		b.Place(id, tokens == 1)
	}
	for _, tr := range netNode.collect("transition", nil) {
		id := tr.attr("id")
		if id == "" {
			return nil, errors.New("pnml: transition without id attribute")
		}
		if name := tr.valueOf("name"); name != "" && name != id {
			b.TransitionNamed(id, name)
		} else {
			b.Transition(id)
		}
	}
	for _, a := range netNode.collect("arc", nil) {
		src, dst := a.attr("source"), a.attr("target")
		if src == "" || dst == "" {
			return nil, fmt.Errorf("pnml: arc %q lacks a source or target", a.attr("id"))
		}
		if s := a.valueOf("inscription"); s != "" {
			w, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("pnml: arc %s->%s: inscription %q: %w", src, dst, s, err)
			}
			if w != 1 {
				return nil, fmt.Errorf("pnml: arc %s->%s weighs %d: %w", src, dst, w, ErrArcWeight)
			}
		}
		b.Arc(src, dst)
	}

	net, err := b.Done()
	if err != nil {
		return nil, fmt.Errorf("pnml: %w", err)
	}
	return net, nil
}

// ParseFile reads path and parses it as PNML.
func ParseFile(path string) (*petrinet.Net, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pnml: %w", err)
	}
	return Parse(data)
}

const (
	pnmlNamespace = "http://www.pnml.org/version-2009/grammar/pnml"
	ptnetType     = "http://www.pnml.org/version-2009/grammar/ptnet"
)

type xmlText struct {
	Text string `xml:"text"`
}

type xmlPlace struct {
	ID      string   `xml:"id,attr"`
	Initial *xmlText `xml:"initialMarking,omitempty"`
}

type xmlTransition struct {
	ID   string   `xml:"id,attr"`
	Name *xmlText `xml:"name,omitempty"`
}

type xmlArc struct {
	ID     string `xml:"id,attr"`
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
}

type xmlPage struct {
	ID          string          `xml:"id,attr"`
	Places      []xmlPlace      `xml:"place"`
	Transitions []xmlTransition `xml:"transition"`
	Arcs        []xmlArc        `xml:"arc"`
}

type xmlNet struct {
	ID   string  `xml:"id,attr"`
	Type string  `xml:"type,attr"`
	Page xmlPage `xml:"page"`
}

type xmlDoc struct {
	XMLName xml.Name `xml:"pnml"`
	Xmlns   string   `xml:"xmlns,attr"`
	Net     xmlNet   `xml:"net"`
}

// Marshal writes the net as a canonical PNML document: one page, places in
// bit-index order, transitions in declared order, arcs grouped per
// transition with pre-set arcs before post-set arcs.
func Marshal(net *petrinet.Net) ([]byte, error) {
	page := xmlPage{ID: "page1"}
	initial := net.Initial()
	for i, name := range net.Places() {
		p := xmlPlace{ID: name}
		if initial.Bit(i) {
			p.Initial = &xmlText{Text: "1"}
		}
		page.Places = append(page.Places, p)
	}
	arcID := 0
	nextArc := func(src, dst string) xmlArc {
		arcID++
		return xmlArc{ID: fmt.Sprintf("a%d", arcID), Source: src, Target: dst}
	}
	for _, t := range net.Transitions() {
		xt := xmlTransition{ID: t.ID}
		if t.Name != "" && t.Name != t.ID {
			xt.Name = &xmlText{Text: t.Name}
		}
		page.Transitions = append(page.Transitions, xt)
		for i := 0; i < net.PlaceCount(); i++ {
			if t.Pre.Bit(i) {
				page.Arcs = append(page.Arcs, nextArc(net.PlaceAt(i), t.ID))
			}
		}
		for i := 0; i < net.PlaceCount(); i++ {
			if t.Post.Bit(i) {
				page.Arcs = append(page.Arcs, nextArc(t.ID, net.PlaceAt(i)))
			}
		}
	}

	doc := xmlDoc{
		Xmlns: pnmlNamespace,
		Net:   xmlNet{ID: "net1", Type: ptnetType, Page: page},
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("pnml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
