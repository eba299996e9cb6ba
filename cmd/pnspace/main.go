package main

import (
	"fmt"
	"os"
)

func main() {
	loadEnv()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "explore":
		if err := runExplore(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "symbolic":
		if err := runSymbolic(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "deadlock":
		if err := runDeadlock(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "optimize":
		if err := runOptimize(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "certify":
		if err := runCertify(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "dot":
		if err := runDot(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("pnspace version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pnspace - 1-safe Petri net analysis tool

Usage:
  pnspace <command> [options]

Commands:
  explore    Enumerate reachable markings by breadth-first search
  symbolic   Compute the reachable set as a decision diagram fixpoint
  deadlock   Decide deadlock freedom with a SAT solver and oracle loop
  optimize   Compare variable orderings and find max-weight markings
  certify    Prove a deadlock trace with a succinct certificate
  dot        Export a net or its state graph as Graphviz DOT
  help       Show this help message
  version    Show version information

Examples:
  # Explore a built-in model
  pnspace explore --model philosophers:5

  # Check a PNML file for deadlocks
  pnspace deadlock --pnml net.pnml

  # Verify a variable ordering preserves the reachable set
  pnspace symbolic --model chain:8 --order force --verify

  # Render the state graph
  pnspace dot --model chain:3 --graph --output chain.dot

For command-specific help, run:
  pnspace <command> --help`)
}
