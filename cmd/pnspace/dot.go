package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pnspace/go-pnspace/reachability"
	"github.com/pnspace/go-pnspace/visualize"
)

func runDot(args []string) error {
	fs := flag.NewFlagSet("dot", flag.ExitOnError)
	nf := addNetFlags(fs)
	graph := fs.Bool("graph", false, "Render the state graph instead of the net structure")
	output := fs.String("output", "", "Output DOT file (default stdout)")
	maxStates := fs.Int("max-states", envInt(envMaxStates, 0), "State budget for --graph, 0 for no limit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pnspace dot [options]

Export Graphviz DOT. The default renders the net structure; --graph
renders the reachability graph with deadlocked markings highlighted.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Net structure to stdout
  pnspace dot --model mutex | dot -Tsvg > mutex.svg

  # State graph to a file
  pnspace dot --model chain:3 --graph --output chain.dot
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	net, err := nf.load()
	if err != nil {
		return err
	}

	if !*graph {
		if *output == "" {
			return visualize.WriteNet(os.Stdout, net)
		}
		if err := visualize.SaveNet(*output, net); err != nil {
			return err
		}
		fmt.Printf("✓ Net structure saved to %s\n", *output)
		return nil
	}

	ex := reachability.NewExplorer(net).WithLogger(nf.logger())
	if *maxStates > 0 {
		ex = ex.WithMaxStates(*maxStates)
	}
	res, err := ex.Explore()
	if err != nil {
		return err
	}

	if *output == "" {
		return visualize.WriteGraph(os.Stdout, net, res)
	}
	if err := visualize.SaveGraph(*output, net, res); err != nil {
		return err
	}
	fmt.Printf("✓ State graph saved to %s\n", *output)
	return nil
}
