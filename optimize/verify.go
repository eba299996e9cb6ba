package optimize

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/pnspace/go-pnspace/petrinet"
	"github.com/pnspace/go-pnspace/reachability"
	"github.com/pnspace/go-pnspace/symbolic"
)

// ErrMismatch reports that a symbolic configuration denoted a different set
// than explicit exploration. Orderings and batchings cannot legally cause
// this, so a mismatch points at a bug, not at a bad heuristic choice.
var ErrMismatch = errors.New("optimized diagram disagrees with explicit exploration")

// Verify explores the net twice, explicitly and symbolically under the given
// ordering and batching, and confirms both engines agree on the reachable
// set. A nil order or batches leaves the engine default in place. The
// symbolic set contains every explicitly visited marking by construction of
// the check, so equal cardinality proves the sets identical.
func Verify(net *petrinet.Net, order []int, batches [][]int) error {
	res, err := reachability.NewExplorer(net).Explore()
	if err != nil {
		return fmt.Errorf("explicit exploration: %w", err)
	}

	var opts []symbolic.Option
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

	for m := range res.Visited {
		if !set.Contains(m) {
			return fmt.Errorf("%w: reachable marking %s missing from diagram", ErrMismatch, net.FormatMarking(m))
		}
	}
	if set.Count().Cmp(big.NewInt(int64(res.Count()))) != 0 {
		return fmt.Errorf("%w: symbolic count %s, explicit count %d", ErrMismatch, set.Count(), res.Count())
	}
	return nil
}
