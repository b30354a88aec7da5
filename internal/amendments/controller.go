package amendments

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	gocache "github.com/patrickmn/go-cache"

	"finsight/internal/config"
	apierrors "finsight/internal/errors"
	"finsight/internal/normalize"
	"finsight/pkg/contracts/domain"
)

// accessionPattern is the filing accession number format: ten-digit filer id,
// two-digit year, six-digit sequence.
var accessionPattern = regexp.MustCompile(`^\d{10}-\d{2}-\d{6}$`)

// lookupRequest carries the validated inputs of an amendment-control lookup
type lookupRequest struct {
	Ticker    string `validate:"required"`
	Concept   string `validate:"required"`
	Period    string `validate:"required"`
	Accession string `validate:"omitempty,accession"`
}

// Controller resolves which filed version of a fact satisfies a request:
// as-reported, latest (possibly amended), or pinned to an exact accession.
//
// Amendment chains are memoized per (ticker, concept, period); entries are
// never invalidated automatically. Hosts that learn of a new filing call
// Invalidate.
type Controller struct {
	source   VersionSource
	settings *config.Settings
	cache    *gocache.Cache
	validate *validator.Validate
	logger   *slog.Logger
}

// NewController creates an amendment controller. settings nil uses defaults.
func NewController(source VersionSource, settings *config.Settings, logger *slog.Logger) *Controller {
	if settings == nil {
		settings = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ttl := settings.AmendmentCacheTTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}

	v := validator.New()
	// Registration only fails for an empty tag
	_ = v.RegisterValidation("accession", func(fl validator.FieldLevel) bool {
		return accessionPattern.MatchString(fl.Field().String())
	})

	return &Controller{
		source:   source,
		settings: settings,
		cache:    gocache.New(ttl, 0),
		validate: v,
		logger:   logger,
	}
}

// ValidateAccession reports whether an accession number matches the required
// format
func ValidateAccession(accession string) bool {
	return accessionPattern.MatchString(accession)
}

// GetFactWithAmendmentControl resolves a fact under amendment control.
//
// Precedence: an explicit accession pins that exact version (amended=false,
// as_reported=true); asReported resolves the latest non-amended version;
// otherwise the latest version wins and, when it amends an earlier filing,
// the original accession, amendment date, and restatement reason are
// populated.
func (c *Controller) GetFactWithAmendmentControl(ctx context.Context, ticker, concept, period string, asReported bool, accession string) (*domain.FactWithAmendment, error) {
	req := lookupRequest{Ticker: ticker, Concept: concept, Period: period, Accession: accession}
	if err := c.validate.Struct(req); err != nil {
		if accession != "" && !ValidateAccession(accession) {
			return nil, apierrors.InvalidAccession(accession)
		}
		return nil, apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_PARAMETER", "invalid lookup parameters", err.Error())
	}

	versions, err := c.versions(ctx, ticker, concept, period)
	if err != nil {
		c.logger.WarnContext(ctx, "filing source unavailable, treating as no data",
			"ticker", ticker, "concept", concept, "period", period, "error", err)
		return nil, apierrors.FactNotFound(ticker, concept)
	}
	if len(versions) == 0 {
		return nil, apierrors.FactNotFound(ticker, concept)
	}

	var (
		version FilingVersion
		info    domain.AmendmentInfo
	)

	switch {
	case accession != "":
		found := false
		for _, v := range versions {
			if v.Accession == accession {
				version, found = v, true
				break
			}
		}
		if !found {
			return nil, apierrors.FactNotFound(ticker, concept)
		}
		// A pinned accession is the as-filed version by definition
		info = domain.AmendmentInfo{Accession: accession, Amended: false, AsReported: true}

	case asReported:
		found := false
		for i := len(versions) - 1; i >= 0; i-- {
			if !isAmended(versions[i]) {
				version, found = versions[i], true
				break
			}
		}
		if !found {
			return nil, apierrors.FactNotFound(ticker, concept)
		}
		info = domain.AmendmentInfo{Accession: version.Accession, Amended: false, AsReported: true}

	default:
		version = versions[len(versions)-1]
		info = c.amendmentInfo(versions, len(versions)-1)
	}

	c.logger.DebugContext(ctx, "fact resolved with amendment control",
		"ticker", ticker,
		"concept", concept,
		"period", period,
		"as_reported", asReported,
		"pinned", accession != "",
		"accession", info.Accession,
		"amended", info.Amended,
	)

	return &domain.FactWithAmendment{
		Value:         version.Value,
		Period:        period,
		Concept:       concept,
		Unit:          version.Unit,
		AmendmentInfo: info,
		Citation:      c.citation(version, concept, info),
	}, nil
}

// GetAmendmentHistory returns the chronological amendment chain for a fact,
// oldest first. A source failure yields an empty history, not an error.
func (c *Controller) GetAmendmentHistory(ctx context.Context, ticker, concept, period string) []domain.AmendmentInfo {
	versions, err := c.versions(ctx, ticker, concept, period)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to get amendment history",
			"ticker", ticker, "concept", concept, "period", period, "error", err)
		return nil
	}

	history := make([]domain.AmendmentInfo, 0, len(versions))
	for i := range versions {
		history = append(history, c.amendmentInfo(versions, i))
	}
	return history
}

// Invalidate drops the memoized amendment chain for a fact, forcing the next
// lookup back to the filing source
func (c *Controller) Invalidate(ticker, concept, period string) {
	c.cache.Delete(cacheKey(ticker, concept, period))
}

// LatestInfo resolves the amendment status of the latest filed version, for
// citation composition by callers that fetched the fact elsewhere.
func (c *Controller) LatestInfo(ctx context.Context, ticker, concept, period string) (domain.AmendmentInfo, bool) {
	versions, err := c.versions(ctx, ticker, concept, period)
	if err != nil || len(versions) == 0 {
		return domain.AmendmentInfo{}, false
	}
	return c.amendmentInfo(versions, len(versions)-1), true
}

// versions returns the filed versions sorted oldest first, memoizing per key.
// Concurrent same-key lookups may race to fill the cache; recomputation is
// idempotent.
func (c *Controller) versions(ctx context.Context, ticker, concept, period string) ([]FilingVersion, error) {
	key := cacheKey(ticker, concept, period)
	if cached, found := c.cache.Get(key); found {
		return cached.([]FilingVersion), nil
	}

	versions, err := c.source.ListVersions(ctx, ticker, concept, period)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	sorted := make([]FilingVersion, len(versions))
	copy(sorted, versions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Filed.Before(sorted[j].Filed)
	})

	c.cache.SetDefault(key, sorted)
	return sorted, nil
}

// amendmentInfo derives the AmendmentInfo for versions[idx] within its chain.
// amended=true requires a known original accession; an amended-form filing
// with no disclosed original falls back to the immediately preceding version.
func (c *Controller) amendmentInfo(versions []FilingVersion, idx int) domain.AmendmentInfo {
	v := versions[idx]

	original := v.Amends
	if original == "" && isAmendedForm(v.Form) && idx > 0 {
		original = versions[idx-1].Accession
	}

	if original == "" {
		return domain.AmendmentInfo{Accession: v.Accession, Amended: false, AsReported: true}
	}

	filed := v.Filed
	return domain.AmendmentInfo{
		Accession:         v.Accession,
		Amended:           true,
		AsReported:        false,
		OriginalAccession: original,
		AmendmentDate:     &filed,
		RestatementReason: v.Reason,
	}
}

func (c *Controller) citation(v FilingVersion, concept string, info domain.AmendmentInfo) domain.Citation {
	_, scale := normalize.ParseUnit(v.Unit)
	return domain.Citation{
		Source:     c.settings.SourceName,
		Accession:  v.Accession,
		URL:        ArchiveURL(c.settings.ArchiveBaseURL, v.CIK, v.Accession),
		Concept:    concept,
		Unit:       v.Unit,
		Scale:      scale,
		Amended:    info.Amended,
		AsReported: info.AsReported,
		Filed:      v.Filed.Format("2006-01-02"),
		Form:       v.Form,
	}
}

// isAmended reports whether a filed version supersedes an earlier filing
func isAmended(v FilingVersion) bool {
	return v.Amends != "" || isAmendedForm(v.Form)
}

// isAmendedForm recognizes amended filing form names (10-K/A, 10-Q/A and the
// undelimited 10-KA, 10-QA variants seen in older indexes)
func isAmendedForm(form string) bool {
	f := strings.ToUpper(strings.TrimSpace(form))
	if strings.HasSuffix(f, "/A") {
		return true
	}
	return f == "10-KA" || f == "10-QA"
}

// ArchiveURL builds the filing archive URL for a citation
func ArchiveURL(base, cik, accession string) string {
	return fmt.Sprintf("%s/%s/%s/", base, cik, strings.ReplaceAll(accession, "-", ""))
}

func cacheKey(ticker, concept, period string) string {
	return ticker + "|" + concept + "|" + period
}
