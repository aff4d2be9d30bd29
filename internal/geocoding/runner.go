package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Lyon2026/Terrain-Backend/internal/territory"
	"golang.org/x/time/rate"
)

// Store is the batch runner's persistence boundary.
type Store interface {
	// ListGeocodable returns buildings with status pending, plus failed
	// ones still under the retry ceiling. limit 0 means no cap.
	ListGeocodable(limit int) ([]territory.Building, error)
	// SaveResult persists coordinates, status, attempt count and error
	// history for one building.
	SaveResult(b *territory.Building) error
}

type Summary struct {
	Attempted         int `json:"attempted"`
	Succeeded         int `json:"succeeded"`
	Failed            int `json:"failed"`
	PermanentlyFailed int `json:"permanently_failed"`
}

// Runner drives one geocoding batch. It owns the provider throttle; the
// provider budget is shared by every query the runner issues, whatever
// building it belongs to.
type Runner struct {
	store   Store
	geo     Resolver
	limiter *rate.Limiter
	policy  Policy

	// seen collapses duplicate queries within the run before they cost a
	// rate-limit token (shared entrances produce identical addresses).
	seen map[string]seenResult
}

type seenResult struct {
	coords *Coordinates
	err    error
}

func NewRunner(store Store, geo Resolver, policy Policy) *Runner {
	return &Runner{
		store:   store,
		geo:     geo,
		limiter: rate.NewLimiter(rate.Limit(policy.RatePerSecond), 1),
		policy:  policy,
		seen:    map[string]seenResult{},
	}
}

// Run geocodes every eligible building. Safe to re-run: already succeeded
// buildings are never selected, and failures only move forward
// (failed -> success or permanently_failed). A cancelled context aborts
// the run; progress made so far stays committed, including a result the
// provider returned just as the cancel arrived.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	buildings, err := r.store.ListGeocodable(r.policy.BatchLimit)
	if err != nil {
		return nil, fmt.Errorf("list geocodable buildings: %w", err)
	}

	summary := &Summary{}
	if len(buildings) == 0 {
		log.Println("[geocode] nothing to do")
		return summary, nil
	}
	log.Printf("[geocode] %d buildings to geocode", len(buildings))

	for i := range buildings {
		b := &buildings[i]

		coords, gerr := r.resolveBuilding(ctx, b)
		if gerr != nil && ctx.Err() != nil {
			// The failure is the shutdown, not the address; don't record it.
			return summary, ctx.Err()
		}

		summary.Attempted++
		b.GeocodeAttempts++

		if gerr == nil {
			b.Latitude, b.Longitude = &coords.Lat, &coords.Lon
			b.GeocodeStatus = territory.GeocodeSuccess
			summary.Succeeded++
		} else {
			b.GeocodeErrors = append(b.GeocodeErrors, gerr.Error())
			if r.permanent(gerr, b.GeocodeAttempts) {
				b.GeocodeStatus = territory.GeocodePermanentlyFailed
				summary.PermanentlyFailed++
				log.Printf("[geocode] %s: giving up after %d attempts: %v",
					b.FullAddress(), b.GeocodeAttempts, gerr)
			} else {
				b.GeocodeStatus = territory.GeocodeFailed
				summary.Failed++
			}
		}

		if err := r.store.SaveResult(b); err != nil {
			return summary, fmt.Errorf("save result for building %d: %w", b.ID, err)
		}
		// A result in hand is persisted before the cancellation is honored.
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
	}

	log.Printf("[geocode] done: %d ok, %d failed, %d permanently failed",
		summary.Succeeded, summary.Failed, summary.PermanentlyFailed)
	return summary, nil
}

// resolveBuilding tries the configured query variants in order until one
// yields in-bounds coordinates. The returned error is the last failure.
func (r *Runner) resolveBuilding(ctx context.Context, b *territory.Building) (*Coordinates, error) {
	street := territory.TitleStreet(b.StreetName)
	base := strings.TrimSpace(b.StreetNumber + " " + street)

	queries := make([]string, 0, len(r.policy.QuerySuffixes)+1)
	if len(r.policy.QuerySuffixes) == 0 {
		queries = append(queries, base)
	}
	for _, suffix := range r.policy.QuerySuffixes {
		queries = append(queries, base+", "+suffix)
	}
	if r.policy.TryWithoutNumber && b.StreetNumber != "" && len(r.policy.QuerySuffixes) > 0 {
		queries = append(queries, street+", "+r.policy.QuerySuffixes[0])
	}

	var lastErr error
	for _, q := range queries {
		coords, err := r.resolveQuery(ctx, q)
		if err == nil {
			return coords, nil
		}
		lastErr = err

		var ge *Error
		if errors.As(err, &ge) && (ge.Kind == InvalidInput || ge.Kind == AmbiguousMatch) {
			// A different variant won't fix these.
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (r *Runner) resolveQuery(ctx context.Context, query string) (*Coordinates, error) {
	if hit, ok := r.seen[query]; ok {
		return hit.coords, hit.err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: ProviderError, Address: query, Detail: err.Error()}
	}

	coords, err := r.geo.Resolve(ctx, query)
	r.seen[query] = seenResult{coords: coords, err: err}
	return coords, err
}

// permanent decides whether a failure ends automatic retries.
func (r *Runner) permanent(err error, attempts int) bool {
	var ge *Error
	if errors.As(err, &ge) && !ge.Retryable() {
		return true
	}
	return attempts >= r.policy.MaxAttempts
}
