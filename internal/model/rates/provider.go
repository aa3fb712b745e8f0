package rates

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/logger"
)

type ratesSource interface {
	GetRates(ctx context.Context, from, date string) (map[string]float64, error)
}

// Cache is an optional shared cache of fetched multipliers. A nil Cache
// disables caching.
type Cache interface {
	GetRate(source, asOf string) (float64, bool, error)
	CacheRate(source, asOf string, rate float64) error
}

// Quote is the result of a rate lookup. Rate converts an amount in the source
// currency to the requested base. Degraded marks the 1:1 fallback used when
// the lookup could not be completed; the mutation still proceeds, the caller
// is expected to surface the warning.
type Quote struct {
	Rate     float64
	Degraded bool
}

type Provider struct {
	source ratesSource
	cache  Cache
}

func NewProvider(source ratesSource, cache Cache) *Provider {
	return &Provider{
		source: source,
		cache:  cache,
	}
}

// Rate returns the multiplier converting source into base as of the given
// date (empty means latest). Lookup failures never propagate: the quote
// degrades to 1 so an expense entry is never blocked by the rates API.
func (p *Provider) Rate(ctx context.Context, source, base, asOf string) Quote {
	if source == base {
		observeLookup(resultBase)
		return Quote{Rate: 1}
	}

	if asOf == "" {
		asOf = "latest"
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "rateLookup")
	defer span.Finish()
	span.SetTag("source", source)
	span.SetTag("base", base)

	if rate, ok := p.cached(source, asOf, base); ok {
		observeLookup(resultHit)
		return Quote{Rate: rate}
	}

	pulled, err := p.source.GetRates(ctx, source, asOf)
	if err != nil {
		ext.Error.Set(span, true)
		observeLookup(resultFallback)
		logger.Warn("rate lookup failed, falling back to 1:1",
			zap.String("source", source), zap.String("base", base), zap.Error(err))
		return Quote{Rate: 1, Degraded: true}
	}

	rate, ok := pulled[base]
	if !ok {
		ext.Error.Set(span, true)
		observeLookup(resultFallback)
		logger.Warn("base currency missing in rates response, falling back to 1:1",
			zap.String("source", source), zap.String("base", base))
		return Quote{Rate: 1, Degraded: true}
	}

	observeLookup(resultFetch)
	p.store(source, asOf, base, rate)
	return Quote{Rate: rate}
}

func (p *Provider) cached(source, asOf, base string) (float64, bool) {
	if p.cache == nil {
		return 0, false
	}
	rate, ok, err := p.cache.GetRate(cacheKey(source, base), asOf)
	if err != nil {
		logger.Warn("rate cache read failed", zap.Error(err))
		return 0, false
	}
	return rate, ok
}

func (p *Provider) store(source, asOf, base string, rate float64) {
	if p.cache == nil {
		return
	}
	err := p.cache.CacheRate(cacheKey(source, base), asOf, rate)
	if err != nil {
		logger.Warn("rate cache write failed", zap.Error(err))
	}
}

func cacheKey(source, base string) string {
	return source + ">" + base
}
