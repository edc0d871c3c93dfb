package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/polyterm/polyterm/internal/gamma"
)

func TestGammaSource_FiltersMalformedMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"ok","question":"Two outcomes","volume24hr":10,
			 "outcomes":["Yes","No"],"clobTokenIds":["t1","t2"]},
			{"id":"single","question":"One outcome","volume24hr":99,
			 "outcomes":["Yes"],"clobTokenIds":["t3"]},
			{"id":"mismatch","question":"Uneven","volume24hr":99,
			 "outcomes":["Yes","No"],"clobTokenIds":["t4"]}
		]`))
	}))
	defer srv.Close()

	fetch := GammaSource(gamma.NewClient(srv.Client()).WithBaseURL(srv.URL), 200)
	markets, err := fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("got %d markets, want 1 (malformed entries excluded)", len(markets))
	}
	if markets[0].ID != "ok" {
		t.Errorf("markets[0].ID = %s, want ok", markets[0].ID)
	}
	if markets[0].TokenIDs[1] != "t2" {
		t.Errorf("TokenIDs = %v", markets[0].TokenIDs)
	}
}

func TestEventSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://polymarket.com/event/who-wins-2028", "who-wins-2028", true},
		{"https://polymarket.com/event/who-wins-2028?tid=123", "who-wins-2028", true},
		{"polymarket.com/event/fed-rate-cut/nested", "fed-rate-cut", true},
		{"bare-slug", "bare-slug", true},
		{"https://polymarket.com/markets/abc", "", false},
	}
	for _, tt := range tests {
		got, err := eventSlug(tt.in)
		if tt.ok && err != nil {
			t.Errorf("eventSlug(%q) failed: %v", tt.in, err)
			continue
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("eventSlug(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("eventSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveEventURL_PicksHighestVolume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"e1","slug":"big-event","title":"Big event","markets":[
			{"id":"low","question":"Low volume","volume24hr":10,
			 "outcomes":["Yes","No"],"clobTokenIds":["t1","t2"]},
			{"id":"high","question":"High volume","volume24hr":5000,
			 "outcomes":["Yes","No"],"clobTokenIds":["t3","t4"]},
			{"id":"huge-but-malformed","question":"No tokens","volume24hr":9999,
			 "outcomes":["Yes","No"],"clobTokenIds":[]}
		]}]`))
	}))
	defer srv.Close()

	client := gamma.NewClient(srv.Client()).WithBaseURL(srv.URL)
	m, err := ResolveEventURL(context.Background(), client, "https://polymarket.com/event/big-event")
	if err != nil {
		t.Fatalf("ResolveEventURL failed: %v", err)
	}
	if m.ID != "high" {
		t.Errorf("resolved market = %s, want high", m.ID)
	}
}

func TestResolveEventURL_Unresolvable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"e1","slug":"empty-event","markets":[
			{"id":"m1","question":"No tokens","volume24hr":10,"outcomes":["Yes"],"clobTokenIds":["t1"]}
		]}]`))
	}))
	defer srv.Close()

	client := gamma.NewClient(srv.Client()).WithBaseURL(srv.URL)
	_, err := ResolveEventURL(context.Background(), client, "empty-event")
	if !errors.Is(err, ErrUnresolvable) {
		t.Errorf("err = %v, want ErrUnresolvable", err)
	}
}
