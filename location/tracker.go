package location

import (
	"context"
	"log/slog"
	"time"

	"towertalk/models"
	"towertalk/streets"
)

// Sink receives every new snapshot in one call.
type Sink func(models.LocationSnapshot)

type TrackerConfig struct {
	// MinDistance in metres; closer fixes are not geocoded again.
	MinDistance float64
	// Timeout bounds a single geocode.
	Timeout time.Duration
}

func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{MinDistance: 25, Timeout: 15 * time.Second}
}

// Tracker geocodes fixes one at a time. When fixes arrive faster than the
// geocoder answers, only the newest pending fix is kept.
type Tracker struct {
	logger *slog.Logger
	geo    Geocoder
	sink   Sink
	cfg    TrackerConfig
	fixes  chan Fix

	last    Fix
	hasLast bool
	prev    models.LocationSnapshot
	sent    bool
}

func NewTracker(logger *slog.Logger, geo Geocoder, sink Sink, cfg TrackerConfig) *Tracker {
	def := DefaultTrackerConfig()
	if cfg.MinDistance < 0 {
		cfg.MinDistance = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Tracker{
		logger: logger,
		geo:    geo,
		sink:   sink,
		cfg:    cfg,
		fixes:  make(chan Fix, 1),
	}
}

// Push never blocks; a fix still waiting is replaced.
func (t *Tracker) Push(fix Fix) {
	for {
		select {
		case t.fixes <- fix:
			return
		default:
		}
		select {
		case <-t.fixes:
		default:
		}
	}
}

func (t *Tracker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fix := <-t.fixes:
			t.handle(ctx, fix)
		}
	}
}

func (t *Tracker) handle(ctx context.Context, fix Fix) {
	if err := fix.Validate(); err != nil {
		t.logger.Warn("fix rejected", "lat", fix.Lat, "lon", fix.Lon, "error", err)
		return
	}
	if t.hasLast && Distance(t.last, fix) < t.cfg.MinDistance {
		return
	}
	gctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()
	place, err := t.geo.Reverse(gctx, fix)
	if err != nil {
		if place.Street == "" {
			t.logger.Warn("geocode failed", "lat", fix.Lat, "lon", fix.Lon, "error", err)
			return
		}
		t.logger.Debug("cross streets unavailable", "error", err)
	}
	t.last = fix
	t.hasLast = true
	snap := Snapshot(place)
	if t.sent && snap == t.prev {
		return
	}
	t.prev = snap
	t.sent = true
	t.logger.Debug("location changed", "street", snap.PrimaryStreet, "cross", snap.CrossStreet)
	t.sink(snap)
}

// Snapshot builds the street snapshot for a geocoding result.
func Snapshot(place Place) models.LocationSnapshot {
	street := streets.NormalizeForSpeech(place.Street)
	if street == "" {
		return models.LocationSnapshot{}
	}
	return models.LocationSnapshot{
		PrimaryStreet: street,
		CrossStreet:   streets.PickCrossStreet(place.Nearby, street),
		QualityValid:  true,
	}
}
