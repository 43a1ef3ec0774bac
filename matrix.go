package pyextci

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunMatrix executes one pipeline run per declared interpreter version.
//
// Rows are independent and share no state with their siblings. The toolchain
// is bootstrapped once before the rows start; the per-row bootstrap step then
// short-circuits on the idempotence probe, which also keeps concurrent rows
// from racing on the install prefix.
//
// Rows run sequentially unless cfg.Parallelism raises the bound. The returned
// slice has one entry per version, in input order. The error is non-nil when
// any row failed; per-row detail stays in the RunResults.
func RunMatrix(ctx context.Context, cfg *RunConfig) ([]*RunResult, error) {
	if len(cfg.PythonVersions) == 0 {
		return nil, fmt.Errorf("matrix has no interpreter versions")
	}

	runner := NewRunner(cfg)

	if err := runner.Bootstrap.Install(ctx); err != nil {
		return nil, err
	}

	limit := cfg.Parallelism
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	rows := make([]*RunResult, len(cfg.PythonVersions))
	for i, version := range cfg.PythonVersions {
		i, version := i, version
		g.Go(func() error {
			rows[i] = runner.Run(gctx, cfg, version)
			// Row failures are reported per row, not through the group:
			// one failing version must not cancel its siblings.
			return nil
		})
	}

	_ = g.Wait()

	failed := 0
	for _, row := range rows {
		if !row.Passed() {
			failed++
		}
	}
	if failed > 0 {
		return rows, fmt.Errorf("%d of %d matrix rows failed", failed, len(rows))
	}

	return rows, nil
}
