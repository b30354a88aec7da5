package facts

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"finsight/internal/amendments"
	"finsight/internal/config"
	apierrors "finsight/internal/errors"
	"finsight/internal/normalize"
	"finsight/pkg/contracts/domain"
)

// Store maps internal metric names to taxonomy concepts, fetches the raw
// facts, and returns them normalized with citation metadata.
//
// The only mutable state is the read-through cache; lookups for the same key
// collapse to a single upstream call via singleflight, and the concept map is
// read-only for the process lifetime.
type Store struct {
	source     Source
	normalizer *normalize.Normalizer
	controller *amendments.Controller
	conceptMap *config.ConceptMap
	settings   *config.Settings
	logger     *slog.Logger

	cache  *gocache.Cache
	flight singleflight.Group

	factsServed   metric.Int64Counter
	factsNotFound metric.Int64Counter
}

// NewStore creates a facts store. controller may be nil when amendment
// status is not needed in citations; settings nil uses defaults.
func NewStore(source Source, normalizer *normalize.Normalizer, controller *amendments.Controller, conceptMap *config.ConceptMap, settings *config.Settings, logger *slog.Logger) *Store {
	if settings == nil {
		settings = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ttl := settings.FactCacheTTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}

	meter := otel.Meter("finsight/facts")
	served, _ := meter.Int64Counter("facts.served",
		metric.WithDescription("Normalized facts returned to callers"))
	missed, _ := meter.Int64Counter("facts.not_found",
		metric.WithDescription("Fact lookups with no mapping or no data"))

	return &Store{
		source:        source,
		normalizer:    normalizer,
		controller:    controller,
		conceptMap:    conceptMap,
		settings:      settings,
		logger:        logger,
		cache:         gocache.New(ttl, 10*time.Minute),
		factsServed:   served,
		factsNotFound: missed,
	}
}

// GetFact returns one normalized fact with citation metadata, or a typed
// not-found error: MAPPING_NOT_FOUND when the metric has no taxonomy concept
// for the configured standard, FACT_NOT_FOUND when the mapped concepts
// returned no data. Both are recoverable absences, not faults.
func (s *Store) GetFact(ctx context.Context, ticker, metric string, period string, freq domain.Frequency) (*domain.StoredFact, error) {
	key := strings.Join([]string{ticker, metric, period, string(freq)}, "|")

	if cached, found := s.cache.Get(key); found {
		fact := cached.(domain.StoredFact)
		return &fact, nil
	}

	result, err, _ := s.flight.Do(key, func() (interface{}, error) {
		// A previous flight may have filled the cache after our miss
		if cached, found := s.cache.Get(key); found {
			fact := cached.(domain.StoredFact)
			return &fact, nil
		}
		fact, err := s.lookupFact(ctx, ticker, metric, period, freq)
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(key, *fact)
		return fact, nil
	})
	if err != nil {
		s.factsNotFound.Add(ctx, 1)
		return nil, err
	}

	s.factsServed.Add(ctx, 1)
	return result.(*domain.StoredFact), nil
}

func (s *Store) lookupFact(ctx context.Context, ticker, metric, period string, freq domain.Frequency) (*domain.StoredFact, error) {
	concepts := s.conceptMap.Lookup(metric, s.settings.Standard)
	if len(concepts) == 0 {
		s.logger.WarnContext(ctx, "no concept mapping for metric",
			"metric", metric, "standard", s.settings.Standard)
		return nil, apierrors.MappingNotFound(metric, s.settings.Standard)
	}

	for _, concept := range concepts {
		raw, err := s.source.FetchFact(ctx, ticker, concept, period, freq)
		if err != nil {
			s.logger.WarnContext(ctx, "fact source failed for concept, trying next",
				"ticker", ticker, "concept", concept, "error", err)
			continue
		}
		if raw == nil {
			continue
		}
		fact := s.compose(ctx, ticker, metric, *raw)
		return &fact, nil
	}

	s.logger.WarnContext(ctx, "no data found for any mapped concept",
		"ticker", ticker, "metric", metric, "concepts", concepts)
	return nil, apierrors.FactNotFound(ticker, metric)
}

// GetSeries returns the normalized fact history for a metric in the order the
// upstream source provides it; the store does not resequence or deduplicate.
// An unmapped metric is MAPPING_NOT_FOUND; mapped concepts with no data yield
// an empty series.
func (s *Store) GetSeries(ctx context.Context, ticker, metric string, freq domain.Frequency, limit int) ([]domain.StoredFact, error) {
	concepts := s.conceptMap.Lookup(metric, s.settings.Standard)
	if len(concepts) == 0 {
		s.logger.WarnContext(ctx, "no concept mapping for metric",
			"metric", metric, "standard", s.settings.Standard)
		return nil, apierrors.MappingNotFound(metric, s.settings.Standard)
	}

	for _, concept := range concepts {
		raws, err := s.source.FetchSeries(ctx, ticker, concept, freq, limit)
		if err != nil {
			s.logger.WarnContext(ctx, "series source failed for concept, trying next",
				"ticker", ticker, "concept", concept, "error", err)
			continue
		}
		if len(raws) == 0 {
			continue
		}

		series := make([]domain.StoredFact, 0, len(raws))
		for _, raw := range raws {
			series = append(series, s.compose(ctx, ticker, metric, raw))
		}
		s.logger.DebugContext(ctx, "series composed",
			"ticker", ticker, "metric", metric, "concept", concept, "periods", len(series))
		return series, nil
	}

	return []domain.StoredFact{}, nil
}

// compose normalizes a raw fact and assembles the citation object
func (s *Store) compose(ctx context.Context, ticker, metric string, raw domain.Fact) domain.StoredFact {
	norm := s.normalizer.NormalizeFact(ctx, raw.Value, raw.Unit, raw.Period,
		s.settings.TargetCurrency, s.settings.TargetScale)

	info := domain.AmendmentInfo{Accession: raw.Accession, Amended: false, AsReported: true}
	if s.controller != nil {
		if latest, ok := s.controller.LatestInfo(ctx, ticker, raw.Concept, raw.Period); ok {
			info = latest
		}
	}

	citation := domain.Citation{
		Source:     s.settings.SourceName,
		Accession:  raw.Accession,
		URL:        amendments.ArchiveURL(s.settings.ArchiveBaseURL, raw.CIK, raw.Accession),
		Concept:    raw.Concept,
		Unit:       raw.Unit,
		Scale:      norm.ScalingApplied.SourceScale,
		FXUsed:     norm.FXConversion,
		Amended:    info.Amended,
		AsReported: info.AsReported,
		Filed:      raw.Filed,
		Form:       raw.Form,
	}

	return domain.StoredFact{
		Ticker:        ticker,
		Metric:        metric,
		Value:         norm.NormalizedValue,
		Unit:          norm.TargetUnit,
		Period:        raw.Period,
		Citation:      citation,
		Raw:           raw,
		Normalization: norm,
	}
}

// DerivedMetrics lists metrics computed from other metrics rather than read
// from filings
func (s *Store) DerivedMetrics() map[string]config.DerivedMetric {
	return s.conceptMap.DerivedMetrics
}

// TTMMetrics lists metrics that support trailing-twelve-month aggregation
func (s *Store) TTMMetrics() []string {
	return s.conceptMap.TTMMetrics
}

// Metrics lists every metric the concept map covers
func (s *Store) Metrics() []string {
	return s.conceptMap.Metrics()
}

// GroundingSeries converts a stored-fact history into a grounding time
// series. Facts with unparsable period dates are skipped; points are sorted
// ascending and duplicate dates keep the first occurrence so the series
// invariants hold.
func GroundingSeries(seriesID string, freq domain.Frequency, facts []domain.StoredFact) domain.TimeSeries {
	points := make([]domain.Point, 0, len(facts))
	for _, f := range facts {
		date, err := time.Parse("2006-01-02", f.Period)
		if err != nil {
			continue
		}
		points = append(points, domain.Point{Date: date, Value: f.Value.InexactFloat64()})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	deduped := points[:0]
	for _, p := range points {
		if len(deduped) > 0 && deduped[len(deduped)-1].Date.Equal(p.Date) {
			continue
		}
		deduped = append(deduped, p)
	}

	return domain.TimeSeries{SeriesID: seriesID, Frequency: freq, Points: deduped}
}
