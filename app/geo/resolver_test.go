package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/world-on-fire/app/database"
	"github.com/lysyi3m/world-on-fire/app/fetch"
)

type mockCache struct {
	mu        sync.Mutex
	rows      map[string]database.Location
	getErr    error
	upsertErr error
	upserts   int
}

func newMockCache() *mockCache {
	return &mockCache{rows: make(map[string]database.Location)}
}

func (m *mockCache) Get(ctx context.Context, name string) (*database.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	loc, ok := m.rows[name]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}

func (m *mockCache) Upsert(ctx context.Context, name string, latitude, longitude float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.rows[name] = database.Location{Name: name, Latitude: latitude, Longitude: longitude, UpdatedAt: time.Now()}
	return nil
}

type mockGeocoder struct {
	calls   int32
	coords  map[string]*Coordinates
	err     error
	release chan struct{}
}

func (m *mockGeocoder) Geocode(ctx context.Context, query string) (*Coordinates, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.release != nil {
		<-m.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.coords[query], nil
}

func TestResolver_CacheAside(t *testing.T) {
	cache := newMockCache()
	geocoder := &mockGeocoder{coords: map[string]*Coordinates{"Paris": {48.8566, 2.3522}}}
	resolver := NewResolver(cache, geocoder, time.Second)
	ctx := context.Background()

	first := resolver.Resolve(ctx, "Paris")
	if first.Coordinates == nil || first.Cached {
		t.Fatalf("Expected fresh coordinates on miss, got %+v", first)
	}

	second := resolver.Resolve(ctx, "Paris")
	if second.Coordinates == nil || !second.Cached {
		t.Fatalf("Expected cached coordinates on hit, got %+v", second)
	}
	if *second.Coordinates != *first.Coordinates {
		t.Errorf("Expected %v, got %v", *first.Coordinates, *second.Coordinates)
	}
	if calls := atomic.LoadInt32(&geocoder.calls); calls != 1 {
		t.Errorf("Expected geocoder to be called once, got %d", calls)
	}
}

func TestResolver_NoLookupForPlaceholders(t *testing.T) {
	cache := newMockCache()
	cache.getErr = errors.New("should not be read")
	geocoder := &mockGeocoder{}
	resolver := NewResolver(cache, geocoder, time.Second)

	for _, name := range []string{"", "Unknown"} {
		if res := resolver.Resolve(context.Background(), name); res.Coordinates != nil {
			t.Errorf("Expected no coordinates for %q", name)
		}
	}
	if geocoder.calls != 0 {
		t.Errorf("Expected no geocoder calls, got %d", geocoder.calls)
	}
}

func TestResolver_FailuresAreNotCached(t *testing.T) {
	cache := newMockCache()
	geocoder := &mockGeocoder{coords: map[string]*Coordinates{}}
	resolver := NewResolver(cache, geocoder, time.Second)
	ctx := context.Background()

	if res := resolver.Resolve(ctx, "Atlantis"); res.Coordinates != nil {
		t.Errorf("Expected not found, got %+v", res)
	}

	geocoder.err = errors.New("HTTP error: 503 Service Unavailable")
	if res := resolver.Resolve(ctx, "Atlantis"); res.Coordinates != nil {
		t.Errorf("Expected failure to give no coordinates, got %+v", res)
	}

	if cache.upserts != 0 {
		t.Errorf("Expected no cache writes, got %d", cache.upserts)
	}
	if calls := atomic.LoadInt32(&geocoder.calls); calls != 2 {
		t.Errorf("Expected geocoder to be retried on next resolve, got %d calls", calls)
	}
}

func TestResolver_CacheReadErrorIsMiss(t *testing.T) {
	cache := newMockCache()
	cache.getErr = errors.New("database is locked")
	geocoder := &mockGeocoder{coords: map[string]*Coordinates{"Lima": {-12.0464, -77.0428}}}
	resolver := NewResolver(cache, geocoder, time.Second)

	res := resolver.Resolve(context.Background(), "Lima")
	if res.Coordinates == nil || res.Cached {
		t.Errorf("Expected geocoded coordinates, got %+v", res)
	}
	if cache.upserts != 1 {
		t.Errorf("Expected the result to be cached, got %d writes", cache.upserts)
	}
}

func TestResolver_CoalescesConcurrentLookups(t *testing.T) {
	cache := newMockCache()
	geocoder := &mockGeocoder{
		coords:  map[string]*Coordinates{"Tokyo": {35.6762, 139.6503}},
		release: make(chan struct{}),
	}
	resolver := NewResolver(cache, geocoder, 5*time.Second)

	var wg sync.WaitGroup
	results := make([]Resolution, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = resolver.Resolve(context.Background(), "Tokyo")
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(geocoder.release)
	wg.Wait()

	for i, res := range results {
		if res.Coordinates == nil {
			t.Errorf("Result %d: expected coordinates", i)
		}
	}
	if calls := atomic.LoadInt32(&geocoder.calls); calls != 1 {
		t.Errorf("Expected a single geocoder call, got %d", calls)
	}
}

func TestResolver_CancelledCallerDoesNotFailOthers(t *testing.T) {
	cache := newMockCache()
	geocoder := &mockGeocoder{
		coords:  map[string]*Coordinates{"Nairobi": {-1.2921, 36.8219}},
		release: make(chan struct{}),
	}
	resolver := NewResolver(cache, geocoder, 5*time.Second)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := make(chan Resolution, 1)
	go func() {
		first <- resolver.Resolve(firstCtx, "Nairobi")
	}()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&geocoder.calls) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Geocoder was never called")
		}
		time.Sleep(5 * time.Millisecond)
	}

	second := make(chan Resolution, 1)
	go func() {
		second <- resolver.Resolve(context.Background(), "Nairobi")
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case res := <-first:
		if res.Coordinates != nil {
			t.Errorf("Expected cancelled caller to get no coordinates, got %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Cancelled caller did not return")
	}

	close(geocoder.release)
	res := <-second
	if res.Coordinates == nil || res.Coordinates.Latitude != -1.2921 {
		t.Errorf("Expected shared lookup to succeed for the remaining caller, got %+v", res)
	}
	if calls := atomic.LoadInt32(&geocoder.calls); calls != 1 {
		t.Errorf("Expected a single geocoder call, got %d", calls)
	}
	if cache.upserts != 1 {
		t.Errorf("Expected the result to be cached, got %d writes", cache.upserts)
	}
}

func TestNominatim_Geocode(t *testing.T) {
	var gotQuery, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "Cairo":
			w.Write([]byte(`[{"lat":"30.0443879","lon":"31.2357257","display_name":"Cairo, Egypt"}]`))
		case "Broken":
			w.Write([]byte(`[{"lat":"north","lon":"0"}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	geocoder := NewNominatim(fetch.NewClient(server.Client(), "default-agent"), NominatimOptions{
		BaseURL:     server.URL + "/",
		UserAgent:   "worldonfire-backend",
		MinInterval: time.Millisecond,
	})
	ctx := context.Background()

	coords, err := geocoder.Geocode(ctx, "Cairo")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if coords == nil || coords.Latitude != 30.0443879 || coords.Longitude != 31.2357257 {
		t.Errorf("Unexpected coordinates: %+v", coords)
	}
	if gotQuery != "format=jsonv2&limit=1&q=Cairo" {
		t.Errorf("Unexpected query: %s", gotQuery)
	}
	if gotUA != "worldonfire-backend" {
		t.Errorf("Expected geocoder user agent, got %s", gotUA)
	}

	coords, err = geocoder.Geocode(ctx, "Atlantis")
	if err != nil || coords != nil {
		t.Errorf("Expected nil, nil for unknown place, got %+v, %v", coords, err)
	}

	if _, err := geocoder.Geocode(ctx, "Broken"); err == nil {
		t.Error("Expected error for malformed coordinates")
	}
}

func TestCoordinates_MarshalJSON(t *testing.T) {
	data, err := Coordinates{Latitude: 1.5, Longitude: -2.25}.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[1.5,-2.25]" {
		t.Errorf("Expected [1.5,-2.25], got %s", data)
	}

	var decoded Coordinates
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatal(err)
	}
	if decoded.Latitude != 1.5 || decoded.Longitude != -2.25 {
		t.Errorf("Unexpected decoded coordinates: %+v", decoded)
	}
}
