package routingalgorithm

import (
	"context"
	"errors"
	"testing"

	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestBatchRouterMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := randomGraph(t, rng, 200, 3)

	queries := make([]Query, 0, 100)
	for i := 0; i < 100; i++ {
		queries = append(queries, Query{
			From: datastructure.Index(rng.Intn(g.NodeCount())),
			To:   datastructure.Index(rng.Intn(g.NodeCount())),
		})
	}

	br := NewBatchRouter(func() PathFinder { return NewBidirectionalDijkstra(g) }, 8)
	paths, err := br.Route(context.Background(), queries)
	require.NoError(t, err)
	require.Len(t, paths, len(queries))

	d := NewDijkstra(g)
	for i, q := range queries {
		want, err := d.CalcPath(q.From, q.To)
		require.NoError(t, err)
		assert.Equal(t, want.Found, paths[i].Found)
		assert.InDelta(t, want.Weight, paths[i].Weight, 1e-6)
	}
}

func TestBatchRouterError(t *testing.T) {
	g := newFixtureGraph(t)
	br := NewBatchRouter(func() PathFinder { return NewDijkstra(g) }, 2)

	_, err := br.Route(context.Background(), []Query{{From: 0, To: 5}, {From: 0, To: 100}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, datastructure.ErrNodeOutOfRange))
}

func TestBatchRouterCancelled(t *testing.T) {
	g := newFixtureGraph(t)
	br := NewBatchRouter(func() PathFinder { return NewDijkstra(g) }, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := br.Route(ctx, []Query{{From: 0, To: 5}})
	assert.ErrorIs(t, err, context.Canceled)
}
