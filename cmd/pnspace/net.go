package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pnspace/go-pnspace/models"
	"github.com/pnspace/go-pnspace/petrinet"
	"github.com/pnspace/go-pnspace/pnml"
)

// netFlags holds the input-selection flags shared by every subcommand.
type netFlags struct {
	pnml    *string
	model   *string
	verbose *bool
}

func addNetFlags(fs *flag.FlagSet) *netFlags {
	return &netFlags{
		pnml:    fs.String("pnml", "", "Load the net from a PNML file"),
		model:   fs.String("model", "", "Use a built-in model, name[:size] (chain, cycle, isolated, mutex, philosophers)"),
		verbose: fs.Bool("verbose", false, "Log engine progress to stderr"),
	}
}

// load resolves the selected input to a net. Exactly one of --pnml and
// --model must be given.
func (f *netFlags) load() (*petrinet.Net, error) {
	switch {
	case *f.pnml != "" && *f.model != "":
		return nil, fmt.Errorf("--pnml and --model are mutually exclusive")
	case *f.pnml != "":
		net, err := pnml.ParseFile(*f.pnml)
		if err != nil {
			return nil, fmt.Errorf("read net: %w", err)
		}
		return net, nil
	case *f.model != "":
		name, size, err := parseModelSpec(*f.model)
		if err != nil {
			return nil, err
		}
		return models.Named(name, size)
	default:
		return nil, fmt.Errorf("--pnml or --model required")
	}
}

func (f *netFlags) logger() *zap.Logger {
	if !*f.verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// parseModelSpec splits "philosophers:5" into name and size. A bare name
// selects the model's default size.
func parseModelSpec(spec string) (string, int, error) {
	name, raw, found := strings.Cut(spec, ":")
	if !found {
		return name, 0, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil {
		return "", 0, fmt.Errorf("model size %q: %w", raw, err)
	}
	return name, size, nil
}
