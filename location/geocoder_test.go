package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func osmServer(t *testing.T, overpassStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/reverse", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "jsonv2" || q.Get("lat") != "52.370000" || q.Get("lon") != "4.890000" {
			t.Errorf("unexpected reverse query %q", r.URL.RawQuery)
		}
		if q.Get("email") != "ops@example.com" {
			t.Errorf("email = %q", q.Get("email"))
		}
		_, _ = w.Write([]byte(`{"name":"","address":{"road":"Damrak","city":"Amsterdam"}}`))
	})
	mux.HandleFunc("/api/interpreter", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if data := r.PostForm.Get("data"); !strings.Contains(data, "way(around:60,52.370000,4.890000)") {
			t.Errorf("overpass query = %q", data)
		}
		if overpassStatus != http.StatusOK {
			w.WriteHeader(overpassStatus)
			return
		}
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"way","tags":{"name":"Damrak","highway":"primary"}},
			{"type":"way","tags":{"highway":"service"}},
			{"type":"way","tags":{"name":"Oudebrugsteeg","highway":"pedestrian"}},
			{"type":"way","tags":{"name":"oudebrugsteeg","highway":"pedestrian"}}
		]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOSMGeocoderReverse(t *testing.T) {
	srv := osmServer(t, http.StatusOK)
	g := NewOSMGeocoder(http.DefaultClient, OSMConfig{
		NominatimURL: srv.URL + "/",
		OverpassURL:  srv.URL,
		Email:        "ops@example.com",
	})
	place, err := g.Reverse(context.Background(), Fix{Lat: 52.37, Lon: 4.89})
	if err != nil {
		t.Fatal(err)
	}
	if place.Street != "Damrak" {
		t.Errorf("street = %q", place.Street)
	}
	want := []string{"Damrak", "Oudebrugsteeg"}
	if len(place.Nearby) != len(want) {
		t.Fatalf("nearby = %v, want %v", place.Nearby, want)
	}
	for i := range want {
		if place.Nearby[i] != want[i] {
			t.Errorf("nearby[%d] = %q, want %q", i, place.Nearby[i], want[i])
		}
	}
	snap := Snapshot(place)
	if snap.PrimaryStreet != "Damrak" || snap.CrossStreet != "Oudebrugsteeg" || !snap.QualityValid {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestOSMGeocoderOverpassDown(t *testing.T) {
	srv := osmServer(t, http.StatusTooManyRequests)
	g := NewOSMGeocoder(http.DefaultClient, OSMConfig{
		NominatimURL: srv.URL,
		OverpassURL:  srv.URL,
		Email:        "ops@example.com",
	})
	place, err := g.Reverse(context.Background(), Fix{Lat: 52.37, Lon: 4.89})
	if err == nil {
		t.Fatal("expected overpass error")
	}
	if place.Street != "Damrak" || len(place.Nearby) != 0 {
		t.Errorf("place = %+v", place)
	}
}

func TestOSMGeocoderRejectsBadFix(t *testing.T) {
	g := NewOSMGeocoder(http.DefaultClient, OSMConfig{})
	if _, err := g.Reverse(context.Background(), Fix{Lat: 120}); err != ErrInvalidFix {
		t.Errorf("err = %v", err)
	}
}
