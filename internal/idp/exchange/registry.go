package exchange

import (
	"sort"

	"github.com/tokensquare/guardian/internal/idp/autherr"
)

// Pair is one (from, to) transition from the configured allow-list.
type Pair struct {
	From string
	To   string
}

func (p Pair) key() string { return p.From + "-" + p.To }

// Builder collects the implemented exchanges at the composition root. Two
// registrations may legally share a (from, to) pair; the first one configured
// into the allow-list wins and the other stays unreachable.
type Builder struct {
	exchanges []Exchange
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Register(e Exchange) *Builder {
	b.exchanges = append(b.exchanges, e)
	return b
}

// Build validates the configured allow-list against the registered exchanges
// and returns the lookup table. A configured pair with no implementation is a
// configuration error and must abort startup; it is never a request-time
// condition.
func (b *Builder) Build(allowed []Pair) (*Registry, error) {
	table := make(map[string]Exchange, len(allowed))

	for _, pair := range allowed {
		found := false
		for _, e := range b.exchanges {
			if e.From() == pair.From && e.To() == pair.To {
				table[pair.key()] = e
				found = true
				break
			}
		}
		if !found {
			return nil, autherr.Configuration(
				"no exchange implementation for configured pair %s -> %s", pair.From, pair.To)
		}
	}

	return &Registry{table: table}, nil
}

// Registry maps allowed (from, to) pairs to their exchange. Immutable after
// Build.
type Registry struct {
	table map[string]Exchange
}

// Get returns the exchange for a pair. Pairs absent from the allow-list
// yield an UnknownExchange error.
func (r *Registry) Get(from, to string) (Exchange, error) {
	e, ok := r.table[Pair{From: from, To: to}.key()]
	if !ok {
		return nil, autherr.Newf(autherr.KindUnknownExchange,
			"unknown exchange %s -> %s", from, to)
	}
	return e, nil
}

// Pairs lists the allowed transitions, sorted for stable logging.
func (r *Registry) Pairs() []Pair {
	pairs := make([]Pair, 0, len(r.table))
	for _, e := range r.table {
		pairs = append(pairs, Pair{From: e.From(), To: e.To()})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].From != pairs[j].From {
			return pairs[i].From < pairs[j].From
		}
		return pairs[i].To < pairs[j].To
	})
	return pairs
}
