package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/skycast/skycast/internal/common"
)

// User-facing messages. The resolver is the sole translator from
// structured failures to display text.
const (
	msgEmptyQuery     = "Please enter a city name."
	msgNoResults      = "No results found. Try another city."
	msgGeoSuffix      = " Try searching by city instead."
	msgRefreshFailed  = "Could not refresh weather. Showing the last loaded data."
	msgGeoUnavailable = "Geolocation is not available on this system."
)

// View is the read-only surface exposed to consumers: resolution state,
// the last good snapshot (nil before the first success), and the derived
// background category for the snapshot's lead condition.
type View struct {
	State        State      `json:"state"`
	Snapshot     *Snapshot  `json:"snapshot,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	Units        UnitSystem `json:"units"`
	Mode         SearchMode `json:"searchMode,omitempty"`
	Background   Background `json:"background,omitempty"`
}

// Resolver sequences geocoding, fetching and fallback policy into one
// "resolve weather for intent X" operation. Exactly one resolution is
// current at a time; each carries a monotonic token, and a resolution
// whose token has been superseded cannot apply its result.
type Resolver struct {
	fetcher  Fetcher
	geocoder Geocoder
	locator  Locator // nil when the capability is absent

	defaultCity string

	mu         sync.RWMutex
	token      uint64
	state      State
	errMsg     string
	snapshot   *Snapshot
	units      UnitSystem
	mode       SearchMode
	background Background
}

// NewResolver creates a Resolver in the Idle state. locator may be nil;
// defaultCity is the terminal fallback when geolocation is unusable.
func NewResolver(fetcher Fetcher, geocoder Geocoder, locator Locator, defaultCity string, units UnitSystem) *Resolver {
	if !units.Valid() {
		units = UnitsMetric
	}
	return &Resolver{
		fetcher:     fetcher,
		geocoder:    geocoder,
		locator:     locator,
		defaultCity: defaultCity,
		state:       StateIdle,
		units:       units,
	}
}

// View returns the current read-only resolution state.
func (r *Resolver) View() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return View{
		State:        r.state,
		Snapshot:     r.snapshot,
		ErrorMessage: r.errMsg,
		Units:        r.units,
		Mode:         r.mode,
		Background:   r.background,
	}
}

// Start runs the app-start intent: device/IP geolocation with a bounded
// wait, falling back to the configured default city, settling in Idle if
// even the fallback cannot be geocoded.
func (r *Resolver) Start(ctx context.Context) {
	rid := uuid.NewString()
	token := r.begin()

	if r.locator != nil {
		coords, err := r.locator.Locate(ctx)
		if err == nil {
			log.Printf("DEBUG: resolution %s: located at %.4f,%.4f", rid, coords.Lat, coords.Lon)
			r.resolveGeo(ctx, rid, token, coords)
			return
		}
		log.Printf("geolocation failed for resolution %s, falling back to default city: %v", rid, err)
	}

	r.resolveDefault(ctx, rid, token)
}

// SearchCity runs a city-name resolution. An empty query fails fast with
// a user message and leaves the current state untouched.
func (r *Resolver) SearchCity(ctx context.Context, query string) error {
	query = common.TrimQuery(query)
	if query == "" {
		r.setMessage(msgEmptyQuery)
		return fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	rid := uuid.NewString()
	token := r.begin()
	r.setLoading(token)

	log.Printf("DEBUG: resolution %s: searching city %q", rid, query)

	place, err := r.geocoder.ByName(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.fail(token, msgNoResults)
			return nil
		}
		r.fail(token, userMessage(err))
		return nil
	}

	r.resolvePlace(ctx, rid, token, place, ModeCity)
	return nil
}

// RefreshGeo re-runs the geolocation path on demand.
func (r *Resolver) RefreshGeo(ctx context.Context) error {
	if r.locator == nil {
		r.begin() // invalidate any in-flight resolution
		r.setMessageAndState(StateError, msgGeoUnavailable)
		return ErrUnavailable
	}

	rid := uuid.NewString()
	token := r.begin()
	r.setLoading(token)

	coords, err := r.locator.Locate(ctx)
	if err != nil {
		r.fail(token, userMessage(err)+msgGeoSuffix)
		return nil
	}

	r.resolveGeo(ctx, rid, token, coords)
	return nil
}

// Refresh re-fetches weather at the current snapshot's coordinates,
// keeping its label and search mode. Without a snapshot it behaves like
// Start. On failure the previous snapshot stays on display.
func (r *Resolver) Refresh(ctx context.Context) {
	r.mu.RLock()
	snap := r.snapshot
	mode := r.mode
	r.mu.RUnlock()

	if snap == nil {
		r.Start(ctx)
		return
	}

	rid := uuid.NewString()
	token := r.begin()
	r.setLoading(token)

	log.Printf("DEBUG: resolution %s: refreshing %q", rid, snap.PlaceLabel)

	obs, err := r.fetcher.Fetch(ctx, snap.Lat, snap.Lon, r.unitsNow())
	if err != nil {
		r.fail(token, msgRefreshFailed)
		return
	}

	r.succeed(token, buildSnapshot(snap.PlaceLabel, snap.CountryCode, snap.Lat, snap.Lon, obs), mode)
}

// SetUnits switches the unit system. Equal units are a no-op; without a
// snapshot only the preference changes. Otherwise the snapshot's
// coordinates are re-fetched under the new system; on failure the state
// turns Error but the previous snapshot is kept on display.
func (r *Resolver) SetUnits(ctx context.Context, next UnitSystem) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown unit system %q", ErrInvalidInput, string(next))
	}

	r.mu.Lock()
	if next == r.units {
		r.mu.Unlock()
		return nil
	}
	r.units = next
	snap := r.snapshot
	mode := r.mode
	r.mu.Unlock()

	if snap == nil {
		return nil
	}

	rid := uuid.NewString()
	token := r.begin()
	r.setLoading(token)

	log.Printf("DEBUG: resolution %s: re-fetching %q under %s units", rid, snap.PlaceLabel, next)

	obs, err := r.fetcher.Fetch(ctx, snap.Lat, snap.Lon, next)
	if err != nil {
		// The stale snapshot stays in place; blanking the display on a
		// failed unit toggle loses more than it protects.
		r.fail(token, msgRefreshFailed)
		return nil
	}

	r.succeed(token, buildSnapshot(snap.PlaceLabel, snap.CountryCode, snap.Lat, snap.Lon, obs), mode)
	return nil
}

// resolveDefault geocodes the configured default city. This is the
// terminal fallback: on NotFound or failure it settles in Idle.
func (r *Resolver) resolveDefault(ctx context.Context, rid string, token uint64) {
	place, err := r.geocoder.ByName(ctx, r.defaultCity)
	if err != nil {
		msg := ""
		if !errors.Is(err, ErrNotFound) {
			msg = userMessage(err)
		}
		log.Printf("default city %q unresolvable for resolution %s: %v", r.defaultCity, rid, err)
		r.settleIdle(token, msg)
		return
	}

	r.setLoading(token)
	r.resolvePlace(ctx, rid, token, place, ModeCity)
}

// resolvePlace fetches weather for a geocoded place and applies it.
func (r *Resolver) resolvePlace(ctx context.Context, rid string, token uint64, place Place, mode SearchMode) {
	obs, err := r.fetcher.Fetch(ctx, place.Lat, place.Lon, r.unitsNow())
	if err != nil {
		msg := userMessage(err)
		if mode == ModeGeo {
			msg += msgGeoSuffix
		}
		r.fail(token, msg)
		return
	}

	log.Printf("DEBUG: resolution %s: fetched %d forecast samples for %q", rid, len(obs.Samples), place.Name)
	r.succeed(token, buildSnapshot(place.Name, place.Country, place.Lat, place.Lon, obs), mode)
}

// resolveGeo fetches weather for located coordinates, reverse geocoding
// the display label in parallel. Reverse failure never blocks the result.
func (r *Resolver) resolveGeo(ctx context.Context, rid string, token uint64, coords Coordinates) {
	r.setLoading(token)

	type labelResult struct {
		place Place
		err   error
	}
	labelCh := make(chan labelResult, 1)

	go func() {
		p, err := r.geocoder.Reverse(ctx, coords.Lat, coords.Lon)
		labelCh <- labelResult{place: p, err: err}
	}()

	obs, err := r.fetcher.Fetch(ctx, coords.Lat, coords.Lon, r.unitsNow())
	label := <-labelCh

	if err != nil {
		r.fail(token, userMessage(err)+msgGeoSuffix)
		return
	}

	name := fmt.Sprintf("%.2f, %.2f", coords.Lat, coords.Lon)
	country := ""
	if label.err == nil {
		name = label.place.Name
		country = label.place.Country
	} else {
		log.Printf("reverse geocode failed for resolution %s, using coordinate label: %v", rid, label.err)
	}

	r.succeed(token, buildSnapshot(name, country, coords.Lat, coords.Lon, obs), ModeGeo)
}

// buildSnapshot merges an observation into the unified snapshot. When the
// forecast leg produced no usable samples, the current conditions are
// promoted into a single synthetic daily entry so Daily is never empty.
func buildSnapshot(label, country string, lat, lon float64, obs Observation) *Snapshot {
	daily := AggregateDaily(obs.Samples)
	if len(daily) == 0 {
		cur := obs.Current
		daily = []DailySummary{{
			DateKey:          common.DayKey(cur.ObservedAt),
			RepresentativeTS: cur.ObservedAt,
			TempMin:          cur.Temp,
			TempMax:          cur.Temp,
			MiddayTemp:       cur.Temp,
			WeatherCode:      cur.WeatherCode,
			WeatherMain:      cur.WeatherMain,
			Description:      cur.Description,
		}}
	}

	return &Snapshot{
		PlaceLabel:       label,
		CountryCode:      country,
		Current:          obs.Current,
		Daily:            daily,
		UTCOffsetSeconds: obs.UTCOffsetSeconds,
		Lat:              lat,
		Lon:              lon,
	}
}

// begin starts a new resolution and invalidates all earlier ones.
func (r *Resolver) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token++
	return r.token
}

func (r *Resolver) stale(token uint64) bool {
	return token != r.token
}

func (r *Resolver) setLoading(token uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stale(token) {
		return
	}
	r.state = StateLoading
	r.errMsg = ""
}

func (r *Resolver) fail(token uint64, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stale(token) {
		log.Printf("dropping stale error result: %s", msg)
		return
	}
	r.state = StateError
	r.errMsg = msg
}

func (r *Resolver) settleIdle(token uint64, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stale(token) {
		return
	}
	r.state = StateIdle
	r.errMsg = msg
}

func (r *Resolver) succeed(token uint64, snap *Snapshot, mode SearchMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stale(token) {
		log.Printf("dropping stale snapshot for %q", snap.PlaceLabel)
		return
	}
	r.state = StateSuccess
	r.errMsg = ""
	r.snapshot = snap
	r.mode = mode
	r.background = Classify(snap.Current.WeatherCode, snap.Current.WeatherMain)
}

// setMessage records a user message without touching state or token.
func (r *Resolver) setMessage(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errMsg = msg
}

func (r *Resolver) setMessageAndState(s State, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
	r.errMsg = msg
}

func (r *Resolver) unitsNow() UnitSystem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.units
}

// userMessage translates a structured failure into display text.
func userMessage(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return "Authentication failed. " + authErr.Remediation
	}

	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		if upErr.Message != "" {
			return upErr.Message
		}
		return fmt.Sprintf("The weather service returned an error (status %d).", upErr.Status)
	}

	if errors.Is(err, ErrUnavailable) {
		return msgGeoUnavailable
	}

	return err.Error()
}
