package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pnspace/go-pnspace/optimize"
	"github.com/pnspace/go-pnspace/petrinet"
	"github.com/pnspace/go-pnspace/symbolic"
)

// defaultForceRounds bounds the refinement sweeps of the FORCE heuristic.
// The ordering stabilizes after a handful of rounds on nets this size.
const defaultForceRounds = 10

func runSymbolic(args []string) error {
	fs := flag.NewFlagSet("symbolic", flag.ExitOnError)
	nf := addNetFlags(fs)
	orderName := fs.String("order", "identity", "Variable ordering: identity, adjacency or force")
	batch := fs.Int("batch", 1, "Merge transition relations into batches of this size")
	check := fs.Bool("verify", false, "Cross-check the diagram against the explicit engine")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pnspace symbolic [options]

Compute the reachable set as a binary decision diagram fixpoint and report
its exact cardinality.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Count reachable markings symbolically
  pnspace symbolic --model philosophers:6

  # Use the FORCE ordering and batched transition relations
  pnspace symbolic --model philosophers:6 --order force --batch 4

  # Prove the configuration denotes the same set as explicit search
  pnspace symbolic --model chain:8 --order adjacency --verify
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	net, err := nf.load()
	if err != nil {
		return err
	}

	order, err := orderFor(net, *orderName)
	if err != nil {
		return err
	}
	var batches [][]int
	if *batch > 1 {
		batches = optimize.Batches(net, *batch)
	}

	opts := []symbolic.Option{symbolic.WithLogger(nf.logger())}
	if order != nil {
		opts = append(opts, symbolic.WithOrder(order))
	}
	if batches != nil {
		opts = append(opts, symbolic.WithBatches(batches))
	}
	ctx, err := symbolic.NewContext(net, opts...)
	if err != nil {
		return err
	}
	defer ctx.Close()
	set := ctx.Explore()

	span := order
	if span == nil {
		span = optimize.IdentityOrder(net.PlaceCount())
	}
	fmt.Printf("=== Symbolic reachability ===\n\n")
	fmt.Printf("Places:    %d\n", net.PlaceCount())
	fmt.Printf("Ordering:  %s (span %d)\n", *orderName, optimize.Span(net, span))
	fmt.Printf("Relations: %d\n", relationCount(net, batches))
	fmt.Printf("States:    %s\n", set.Count())

	if *check {
		if err := optimize.Verify(net, order, batches); err != nil {
			return err
		}
		fmt.Println("\n✓ Matches the explicit reachable set")
	}

	return nil
}

// orderFor resolves an ordering name to a place permutation. The identity
// ordering returns nil so callers can leave the engine default untouched.
func orderFor(net *petrinet.Net, name string) ([]int, error) {
	switch name {
	case "identity":
		return nil, nil
	case "adjacency":
		return optimize.AdjacencyOrder(net), nil
	case "force":
		return optimize.ForceOrder(net, defaultForceRounds), nil
	default:
		return nil, fmt.Errorf("unknown ordering %q (want identity, adjacency or force)", name)
	}
}

func relationCount(net *petrinet.Net, batches [][]int) int {
	if batches == nil {
		return len(net.Transitions())
	}
	return len(batches)
}
