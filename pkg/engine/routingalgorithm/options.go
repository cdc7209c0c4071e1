package routingalgorithm

import (
	"github.com/lintang-b-s/roadrouter/pkg/datastructure"
	"github.com/lintang-b-s/roadrouter/pkg/geo"
	"github.com/lintang-b-s/roadrouter/pkg/turncost"
)

type routeOptions struct {
	weighting  Weighting
	encoder    datastructure.FlagEncoder
	filter     EdgeFilter
	turnCosts  *turncost.Table
	calc       geo.DistanceCalc
	maxVisited int
	metrics    *QueryMetrics
}

type Option func(*routeOptions)

func defaultRouteOptions() *routeOptions {
	return &routeOptions{
		weighting: NewDistanceWeighting(),
		encoder:   datastructure.DirectionEncoder{},
		filter:    AllEdges,
		calc:      geo.Haversine,
	}
}

func newRouteOptions(opts []Option) *routeOptions {
	o := defaultRouteOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithWeighting(w Weighting) Option {
	return func(o *routeOptions) {
		o.weighting = w
	}
}

func WithFlagEncoder(enc datastructure.FlagEncoder) Option {
	return func(o *routeOptions) {
		o.encoder = enc
	}
}

// WithEdgeFilter filter tambahan yang tidak peduli arah search (mis. NoShortcutFilter).
func WithEdgeFilter(f EdgeFilter) Option {
	return func(o *routeOptions) {
		o.filter = f
	}
}

func WithTurnCosts(table *turncost.Table) Option {
	return func(o *routeOptions) {
		o.turnCosts = table
	}
}

// WithDistanceCalc fungsi jarak untuk heuristic A*.
func WithDistanceCalc(calc geo.DistanceCalc) Option {
	return func(o *routeOptions) {
		o.calc = calc
	}
}

// WithMaxVisitedNodes search berhenti (Found=false) setelah n node di settle. 0 = tanpa batas.
// kandidat goal yang sudah ketemu tapi belum terbukti optimal ikut dibuang.
func WithMaxVisitedNodes(n int) Option {
	return func(o *routeOptions) {
		o.maxVisited = n
	}
}

func WithMetrics(m *QueryMetrics) Option {
	return func(o *routeOptions) {
		o.metrics = m
	}
}

// edgeBased turn restriction hanya benar kalau search membedakan edge masuk ke node.
func (o *routeOptions) edgeBased() bool {
	return o.turnCosts != nil
}

func (o *routeOptions) forwardAccept() EdgeFilter {
	filters := []EdgeFilter{ForwardFilter(o.encoder), o.filter}
	if o.turnCosts != nil {
		filters = append(filters, TurnRestrictionFilter(o.turnCosts))
	}
	return And(filters...)
}

// backwardAccept untuk search yang expand lewat Incoming: edge dilewati dari Adj ke Base.
func (o *routeOptions) backwardAccept() EdgeFilter {
	filters := []EdgeFilter{BackwardFilter(o.encoder), o.filter}
	if o.turnCosts != nil {
		filters = append(filters, ReverseTurnRestrictionFilter(o.turnCosts))
	}
	return And(filters...)
}
