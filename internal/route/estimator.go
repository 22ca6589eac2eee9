package route

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"collectsim/internal/logging"
)

// ExternalFunc is an optional network-based duration lookup (e.g. a routing
// service). It may fail; the estimator then falls back to the geometric
// estimate and logs a degraded-mode event.
type ExternalFunc func(origin, destination Point) (minutes float64, err error)

// legKey memoizes ordered coordinate pairs.
type legKey struct {
	from, to Point
}

const defaultCacheSize = 4096

// Estimator converts coordinate pairs into travel durations. Lookups are
// memoized because the same legs recur thousands of times across an
// experiment; entries are read-only once computed.
type Estimator struct {
	speedKMH float64
	external ExternalFunc
	cache    *lru.Cache[legKey, float64]
	logger   *slog.Logger

	// degraded counts external lookup failures recovered geometrically.
	degraded int
}

// NewEstimator creates an estimator with the given travel speed. external
// may be nil, in which case the geometric estimate is always used.
func NewEstimator(speedKMH float64, external ExternalFunc) *Estimator {
	cache, _ := lru.New[legKey, float64](defaultCacheSize)
	return &Estimator{
		speedKMH: speedKMH,
		external: external,
		cache:    cache,
		logger:   logging.New("route"),
	}
}

// Estimate returns the travel duration between two points in minutes.
func (e *Estimator) Estimate(origin, destination Point) float64 {
	if origin == destination {
		return 0
	}
	key := legKey{origin, destination}
	if minutes, ok := e.cache.Get(key); ok {
		return minutes
	}

	minutes := e.geometric(origin, destination)
	if e.external != nil {
		ext, err := e.external(origin, destination)
		if err != nil {
			e.degraded++
			e.logger.Warn("external routing lookup failed, using geometric estimate",
				"error", err, "degraded_total", e.degraded)
		} else {
			minutes = ext
		}
	}

	e.cache.Add(key, minutes)
	return minutes
}

func (e *Estimator) geometric(origin, destination Point) float64 {
	return Haversine(origin, destination) / e.speedKMH * 60
}

// DegradedCount reports how many external lookups fell back geometrically.
func (e *Estimator) DegradedCount() int {
	return e.degraded
}
