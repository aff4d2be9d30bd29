package geocoding

import (
	"context"
	"testing"

	"github.com/Lyon2026/Terrain-Backend/internal/territory"
)

// memStore keeps buildings in memory and mimics the gorm store's
// eligibility query.
type memStore struct {
	buildings   []territory.Building
	maxAttempts int
	saves       int
}

func (s *memStore) ListGeocodable(limit int) ([]territory.Building, error) {
	var out []territory.Building
	for _, b := range s.buildings {
		eligible := b.GeocodeStatus == territory.GeocodePending ||
			(b.GeocodeStatus == territory.GeocodeFailed && b.GeocodeAttempts < s.maxAttempts)
		if eligible {
			out = append(out, b)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) SaveResult(b *territory.Building) error {
	s.saves++
	for i := range s.buildings {
		if s.buildings[i].ID == b.ID {
			s.buildings[i] = *b
			return nil
		}
	}
	return nil
}

func (s *memStore) get(id uint) territory.Building {
	for _, b := range s.buildings {
		if b.ID == id {
			return b
		}
	}
	return territory.Building{}
}

// fakeGeo scripts the adapter per address and counts calls.
type fakeGeo struct {
	calls   int
	resolve func(address string) (*Coordinates, error)
}

func (f *fakeGeo) Resolve(ctx context.Context, address string) (*Coordinates, error) {
	f.calls++
	return f.resolve(address)
}

func runnerPolicy() Policy {
	p := DefaultPolicy()
	p.RatePerSecond = 10000 // tests must not wait on the provider budget
	p.MaxAttempts = 2
	p.QuerySuffixes = []string{"Lyon, France"}
	p.TryWithoutNumber = false
	return p
}

func pendingBuilding(id uint, number, street string) territory.Building {
	return territory.Building{
		ID:            id,
		StreetNumber:  number,
		StreetName:    street,
		GeocodeStatus: territory.GeocodePending,
	}
}

func TestRunnerSuccessTransition(t *testing.T) {
	store := &memStore{
		buildings:   []territory.Building{pendingBuilding(1, "10", "Rue de la République")},
		maxAttempts: 2,
	}
	geo := &fakeGeo{resolve: func(string) (*Coordinates, error) {
		return &Coordinates{Lat: 45.7578, Lon: 4.8351}, nil
	}}

	summary, err := NewRunner(store, geo, runnerPolicy()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Attempted != 1 || summary.Succeeded != 1 {
		t.Errorf("summary = %+v, want 1 attempted, 1 succeeded", summary)
	}

	b := store.get(1)
	if b.GeocodeStatus != territory.GeocodeSuccess {
		t.Errorf("status = %s, want success", b.GeocodeStatus)
	}
	if b.Latitude == nil || b.Longitude == nil {
		t.Fatal("coordinates not persisted")
	}
	if *b.Latitude < -90 || *b.Latitude > 90 || *b.Longitude < -180 || *b.Longitude > 180 {
		t.Errorf("coordinates out of range: %v,%v", *b.Latitude, *b.Longitude)
	}
}

func TestRunnerRetryCeiling(t *testing.T) {
	store := &memStore{
		buildings:   []territory.Building{pendingBuilding(1, "99", "Rue Inexistante")},
		maxAttempts: 2,
	}
	geo := &fakeGeo{resolve: func(address string) (*Coordinates, error) {
		return nil, &Error{Kind: NoMatch, Address: address}
	}}
	policy := runnerPolicy()

	// Run 1: pending -> failed, eligible for retry.
	if _, err := NewRunner(store, geo, policy).Run(context.Background()); err != nil {
		t.Fatalf("run 1: %v", err)
	}
	b := store.get(1)
	if b.GeocodeStatus != territory.GeocodeFailed {
		t.Fatalf("after run 1: status = %s, want failed", b.GeocodeStatus)
	}
	if b.GeocodeAttempts != 1 {
		t.Errorf("after run 1: attempts = %d, want 1", b.GeocodeAttempts)
	}
	if len(b.GeocodeErrors) != 1 {
		t.Errorf("failure reason not recorded: %v", b.GeocodeErrors)
	}

	// Run 2 reaches the ceiling: failed -> permanently_failed.
	summary, err := NewRunner(store, geo, policy).Run(context.Background())
	if err != nil {
		t.Fatalf("run 2: %v", err)
	}
	if summary.PermanentlyFailed != 1 {
		t.Errorf("summary = %+v, want 1 permanently failed", summary)
	}
	b = store.get(1)
	if b.GeocodeStatus != territory.GeocodePermanentlyFailed {
		t.Fatalf("after run 2: status = %s, want permanently_failed", b.GeocodeStatus)
	}

	// Run 3 must not select it again.
	summary, err = NewRunner(store, geo, policy).Run(context.Background())
	if err != nil {
		t.Fatalf("run 3: %v", err)
	}
	if summary.Attempted != 0 {
		t.Errorf("permanently failed building was retried: %+v", summary)
	}
}

func TestRunnerInvalidInputIsImmediatelyPermanent(t *testing.T) {
	store := &memStore{
		buildings:   []territory.Building{pendingBuilding(1, "", "x")},
		maxAttempts: 5,
	}
	geo := &fakeGeo{resolve: func(address string) (*Coordinates, error) {
		return nil, &Error{Kind: InvalidInput, Address: address}
	}}

	summary, err := NewRunner(store, geo, runnerPolicy()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.PermanentlyFailed != 1 {
		t.Errorf("summary = %+v, want immediate permanent failure", summary)
	}
	if got := store.get(1).GeocodeStatus; got != territory.GeocodePermanentlyFailed {
		t.Errorf("status = %s, want permanently_failed", got)
	}
	// One query, no pointless variant retries for unusable input.
	if geo.calls != 1 {
		t.Errorf("adapter called %d times, want 1", geo.calls)
	}
}

func TestRunnerFailedToSuccess(t *testing.T) {
	store := &memStore{
		buildings: []territory.Building{{
			ID:              1,
			StreetNumber:    "10",
			StreetName:      "Rue de la République",
			GeocodeStatus:   territory.GeocodeFailed,
			GeocodeAttempts: 1,
			GeocodeErrors:   []string{"geocode: provider_error"},
		}},
		maxAttempts: 3,
	}
	geo := &fakeGeo{resolve: func(string) (*Coordinates, error) {
		return &Coordinates{Lat: 45.76, Lon: 4.83}, nil
	}}
	policy := runnerPolicy()
	policy.MaxAttempts = 3

	summary, err := NewRunner(store, geo, policy).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Errorf("summary = %+v, want recovery", summary)
	}
	if got := store.get(1).GeocodeStatus; got != territory.GeocodeSuccess {
		t.Errorf("status = %s, want success", got)
	}
}

func TestRunnerCollapsesDuplicateAddresses(t *testing.T) {
	// Shared entrance: two buildings, same address.
	store := &memStore{
		buildings: []territory.Building{
			pendingBuilding(1, "10", "Rue de la République"),
			pendingBuilding(2, "10", "Rue de la République"),
		},
		maxAttempts: 2,
	}
	geo := &fakeGeo{resolve: func(string) (*Coordinates, error) {
		return &Coordinates{Lat: 45.76, Lon: 4.83}, nil
	}}

	summary, err := NewRunner(store, geo, runnerPolicy()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 2 {
		t.Errorf("summary = %+v, want both buildings geocoded", summary)
	}
	if geo.calls != 1 {
		t.Errorf("adapter called %d times for one distinct address, want 1", geo.calls)
	}
}

func TestRunnerTriesAddressVariants(t *testing.T) {
	store := &memStore{
		buildings:   []territory.Building{pendingBuilding(1, "10", "Rue du Doyenné")},
		maxAttempts: 2,
	}
	policy := runnerPolicy()
	policy.QuerySuffixes = []string{"Lyon 5e, France", "Lyon, France"}

	geo := &fakeGeo{resolve: func(address string) (*Coordinates, error) {
		if address == "10 Rue du Doyenné, Lyon, France" {
			return &Coordinates{Lat: 45.76, Lon: 4.83}, nil
		}
		return nil, &Error{Kind: NoMatch, Address: address}
	}}

	summary, err := NewRunner(store, geo, policy).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Errorf("summary = %+v, want success via second variant", summary)
	}
	if geo.calls != 2 {
		t.Errorf("adapter called %d times, want 2 (first variant misses)", geo.calls)
	}
}

func TestRunnerCancelledContextKeepsResolvedResult(t *testing.T) {
	store := &memStore{
		buildings: []territory.Building{
			pendingBuilding(1, "10", "Rue A"),
			pendingBuilding(2, "11", "Rue B"),
		},
		maxAttempts: 2,
	}
	ctx, cancel := context.WithCancel(context.Background())
	geo := &fakeGeo{resolve: func(string) (*Coordinates, error) {
		cancel() // shutdown arrives while the lookup is in flight
		return &Coordinates{Lat: 45.76, Lon: 4.83}, nil
	}}

	_, err := NewRunner(store, geo, runnerPolicy()).Run(ctx)
	if err == nil {
		t.Fatal("expected context error to propagate")
	}

	// The coordinates the provider already returned are not thrown away.
	if store.saves != 1 {
		t.Fatalf("expected exactly 1 save, got %d", store.saves)
	}
	b := store.get(1)
	if b.GeocodeStatus != territory.GeocodeSuccess || b.Latitude == nil {
		t.Errorf("in-flight success not persisted: %+v", b)
	}
	// The rest of the batch is untouched.
	if got := store.get(2); got.GeocodeStatus != territory.GeocodePending || got.GeocodeAttempts != 0 {
		t.Errorf("building 2 should be left for the next run: %+v", got)
	}
}

func TestRunnerCancelledContextDropsInFlightFailure(t *testing.T) {
	store := &memStore{
		buildings:   []territory.Building{pendingBuilding(1, "10", "Rue A")},
		maxAttempts: 2,
	}
	ctx, cancel := context.WithCancel(context.Background())
	geo := &fakeGeo{resolve: func(address string) (*Coordinates, error) {
		cancel()
		return nil, &Error{Kind: ProviderError, Address: address, Detail: "connection reset"}
	}}

	_, err := NewRunner(store, geo, runnerPolicy()).Run(ctx)
	if err == nil {
		t.Fatal("expected context error to propagate")
	}

	// A failure caused by the shutdown must not burn an attempt.
	if store.saves != 0 {
		t.Errorf("expected no save, got %d", store.saves)
	}
	if b := store.get(1); b.GeocodeStatus != territory.GeocodePending || b.GeocodeAttempts != 0 {
		t.Errorf("building should stay pending with 0 attempts: %+v", b)
	}
}
