package step

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// defaultConcurrency bounds RunMany when no limit is given.
const defaultConcurrency = 4

// Outcome is the result of one run inside RunMany. Exactly one of Result
// and Err is set.
type Outcome struct {
	Inputs Inputs
	Result *Result
	Err    error
}

// RunMany runs the step for every input with at most concurrency runs in
// flight. Outcomes are returned in input order. A failed run does not stop
// the others; only ctx cancellation does.
func (s *Step) RunMany(ctx context.Context, inputs []Inputs, concurrency int) []Outcome {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	outcomes := make([]Outcome, len(inputs))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			outcomes[i].Inputs = in
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Result, outcomes[i].Err = s.Run(ctx, in)
			return nil
		})
	}

	_ = g.Wait()

	return outcomes
}

// Failed counts the outcomes that carry an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
