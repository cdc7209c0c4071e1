package routingalgorithm

import (
	"context"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"golang.org/x/sync/errgroup"
)

type Query struct {
	From datastructure.Index
	To   datastructure.Index
}

// BatchRouter jalankan banyak query read-only paralel. setiap worker punya PathFinder sendiri
// (frontier per search), graph nya dipakai bersama.
type BatchRouter struct {
	factory func() PathFinder
	workers int
}

func NewBatchRouter(factory func() PathFinder, workers int) *BatchRouter {
	if workers <= 0 {
		workers = 1
	}
	return &BatchRouter{factory: factory, workers: workers}
}

// Route hasil ke-i untuk queries[i]. error pertama membatalkan query yang belum jalan.
func (br *BatchRouter) Route(ctx context.Context, queries []Query) ([]Path, error) {
	results := make([]Path, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(br.workers)

	finders := make(chan PathFinder, br.workers)
	for i := 0; i < br.workers; i++ {
		finders <- br.factory()
	}

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			finder := <-finders
			defer func() { finders <- finder }()

			p, err := finder.CalcPath(q.From, q.To)
			if err != nil {
				return err
			}
			results[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
