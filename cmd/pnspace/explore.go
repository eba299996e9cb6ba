package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pnspace/go-pnspace/reachability"
	"github.com/pnspace/go-pnspace/visualize"
)

func runExplore(args []string) error {
	fs := flag.NewFlagSet("explore", flag.ExitOnError)
	nf := addNetFlags(fs)
	edges := fs.Bool("edges", false, "Record the full firing relation")
	maxStates := fs.Int("max-states", envInt(envMaxStates, 0), "Abort after this many markings, 0 for no limit")
	dotFile := fs.String("dot", "", "Write the state graph to a DOT file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pnspace explore [options]

Enumerate every reachable marking by breadth-first search and report
deadlocked markings with shortest firing paths.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Explore a built-in model
  pnspace explore --model chain:3

  # Keep the edge list and render the state graph
  pnspace explore --model philosophers:4 --edges --dot states.dot

  # Guard against state explosion
  pnspace explore --pnml big.pnml --max-states 100000
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	net, err := nf.load()
	if err != nil {
		return err
	}

	ex := reachability.NewExplorer(net).
		WithEdges(*edges).
		WithLogger(nf.logger())
	if *maxStates > 0 {
		ex = ex.WithMaxStates(*maxStates)
	}
	res, err := ex.Explore()
	if err != nil {
		return err
	}

	fmt.Printf("=== Exploration %s ===\n\n", res.RunID)
	fmt.Printf("Places:      %d\n", net.PlaceCount())
	fmt.Printf("Transitions: %d\n", len(net.Transitions()))
	fmt.Printf("States:      %d\n", res.Stats.StateCount)
	fmt.Printf("Firings:     %d\n", res.Stats.EdgeCount)
	fmt.Printf("Time:        %s\n", res.Stats.Duration)

	deadlocks := res.Deadlocks()
	if len(deadlocks) == 0 {
		fmt.Println("\nNo deadlocked markings.")
	} else {
		fmt.Printf("\nDeadlocked markings (%d):\n", len(deadlocks))
		for _, m := range deadlocks {
			path, err := res.PathTo(m)
			if err != nil {
				return fmt.Errorf("path reconstruction: %w", err)
			}
			fmt.Printf("  %s", net.FormatMarking(m))
			if len(path) > 0 {
				fmt.Printf("  via %s", strings.Join(path, " → "))
			}
			fmt.Println()
		}
	}

	if *dotFile != "" {
		if err := visualize.SaveGraph(*dotFile, net, res); err != nil {
			return fmt.Errorf("write graph: %w", err)
		}
		fmt.Printf("\n✓ State graph saved to %s\n", *dotFile)
	}

	return nil
}
