// Package visualize renders nets and their reachability graphs in Graphviz
// DOT format. Output is deterministic: places keep bit-index order and
// markings are listed in ascending bitmask order, so repeated runs diff
// cleanly.
package visualize

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pnspace/go-pnspace/petrinet"
	"github.com/pnspace/go-pnspace/reachability"
)

// Fill colors for the reachability graph.
const (
	initialFill = "#d5e8d4"
	deadFill    = "#f8cecc"
	fontName    = "Helvetica"
)

// WriteGraph writes the reachability graph of res as a DOT digraph. The
// initial marking is double-bordered and dead markings are filled; every
// edge carries the id of the transition that fires along it. Edges are
// rederived from the firing rule, so a result explored without edge
// recording renders the same graph.
func WriteGraph(w io.Writer, net *petrinet.Net, res *reachability.Result) error {
	if _, err := fmt.Fprintf(w, "digraph reachability {\n  rankdir=LR;\n  node [fontname=%q];\n", fontName); err != nil {
		return err
	}
	initial := net.Initial()
	for _, m := range res.Markings() {
		attrs := fmt.Sprintf("label=%s", strconv.Quote(net.FormatMarking(m)))
		switch {
		case deadAt(net, m):
			attrs += fmt.Sprintf(", style=filled, fillcolor=%q", deadFill)
		case m.Equal(initial):
			attrs += fmt.Sprintf(", style=filled, fillcolor=%q", initialFill)
		}
		if m.Equal(initial) {
			attrs += ", peripheries=2"
		}
		if _, err := fmt.Fprintf(w, "  %q [%s];\n", nodeID(net, m), attrs); err != nil {
			return err
		}
	}
	for _, m := range res.Markings() {
		for _, t := range net.Transitions() {
			if !petrinet.Enabled(m, t) {
				continue
			}
			next := petrinet.Fire(m, t)
			if _, err := fmt.Fprintf(w, "  %q -> %q [label=%s];\n",
				nodeID(net, m), nodeID(net, next), strconv.Quote(t.ID)); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// WriteNet writes the net structure as a DOT digraph: places as circles,
// transitions as boxes, arcs following token flow. Initially marked places
// are filled.
func WriteNet(w io.Writer, net *petrinet.Net) error {
	if _, err := fmt.Fprintf(w, "digraph net {\n  rankdir=LR;\n  node [fontname=%q];\n", fontName); err != nil {
		return err
	}
	initial := net.Initial()
	for i, name := range net.Places() {
		attrs := "shape=circle"
		if initial.Bit(i) {
			attrs += fmt.Sprintf(", style=filled, fillcolor=%q", initialFill)
		}
		if _, err := fmt.Fprintf(w, "  %s [%s];\n", strconv.Quote(name), attrs); err != nil {
			return err
		}
	}
	for _, t := range net.Transitions() {
		label := t.ID
		if t.Name != "" && t.Name != t.ID {
			label = t.Name
		}
		if _, err := fmt.Fprintf(w, "  %s [shape=box, label=%s];\n",
			strconv.Quote(t.ID), strconv.Quote(label)); err != nil {
			return err
		}
	}
	for _, t := range net.Transitions() {
		for i := 0; i < net.PlaceCount(); i++ {
			if t.Pre.Bit(i) {
				if _, err := fmt.Fprintf(w, "  %s -> %s;\n",
					strconv.Quote(net.PlaceAt(i)), strconv.Quote(t.ID)); err != nil {
					return err
				}
			}
		}
		for i := 0; i < net.PlaceCount(); i++ {
			if t.Post.Bit(i) {
				if _, err := fmt.Fprintf(w, "  %s -> %s;\n",
					strconv.Quote(t.ID), strconv.Quote(net.PlaceAt(i))); err != nil {
					return err
				}
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// SaveGraph renders the reachability graph to a file.
func SaveGraph(path string, net *petrinet.Net, res *reachability.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteGraph(f, net, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SaveNet renders the net structure to a file.
func SaveNet(path string, net *petrinet.Net) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteNet(f, net); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func nodeID(net *petrinet.Net, m petrinet.Marking) string {
	return "m" + net.Bitmap(m)
}

func deadAt(net *petrinet.Net, m petrinet.Marking) bool {
	for _, t := range net.Transitions() {
		if petrinet.Enabled(m, t) {
			return false
		}
	}
	return true
}
