package gamma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStringList_StringEncoded(t *testing.T) {
	var m Market
	data := []byte(`{"id":"1","outcomes":"[\"Yes\",\"No\"]","clobTokenIds":"[\"tok1\",\"tok2\"]"}`)
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(m.Outcomes) != 2 || m.Outcomes[0] != "Yes" {
		t.Errorf("Outcomes = %v, want [Yes No]", m.Outcomes)
	}
	if len(m.ClobTokenIds) != 2 || m.ClobTokenIds[1] != "tok2" {
		t.Errorf("ClobTokenIds = %v, want [tok1 tok2]", m.ClobTokenIds)
	}
}

func TestStringList_NativeArray(t *testing.T) {
	var m Market
	data := []byte(`{"id":"1","outcomes":["Yes","No"],"clobTokenIds":["tok1","tok2"]}`)
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(m.Outcomes) != 2 || m.Outcomes[1] != "No" {
		t.Errorf("Outcomes = %v, want [Yes No]", m.Outcomes)
	}
}

func TestStringList_EmptyString(t *testing.T) {
	var m Market
	data := []byte(`{"id":"1","outcomes":""}`)
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if m.Outcomes != nil {
		t.Errorf("Outcomes = %v, want nil", m.Outcomes)
	}
}

func TestFetchMarkets_QueryAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("path = %s, want /markets", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("order") != "volume24hr" {
			t.Errorf("order = %q, want volume24hr", q.Get("order"))
		}
		if q.Get("ascending") != "false" {
			t.Errorf("ascending = %q, want false", q.Get("ascending"))
		}
		if q.Get("limit") != "200" {
			t.Errorf("limit = %q, want 200", q.Get("limit"))
		}
		w.Write([]byte(`[
			{"id":"m1","question":"Will it rain?","volume24hr":1000,
			 "outcomes":"[\"Yes\",\"No\"]","clobTokenIds":"[\"t1\",\"t2\"]"},
			{"id":"m2","question":"Will it snow?","volume24hr":500,
			 "outcomes":["Yes","No"],"clobTokenIds":["t3","t4"]}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client()).WithBaseURL(srv.URL)
	active := true
	asc := false
	markets, err := client.FetchMarkets(context.Background(), &Filter{
		Active:    &active,
		Order:     "volume24hr",
		Ascending: &asc,
		Limit:     200,
	})
	if err != nil {
		t.Fatalf("FetchMarkets failed: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("got %d markets, want 2", len(markets))
	}
	if markets[0].ID != "m1" || markets[0].Volume24hr != 1000 {
		t.Errorf("markets[0] = %+v", markets[0])
	}
	if len(markets[1].ClobTokenIds) != 2 {
		t.Errorf("markets[1].ClobTokenIds = %v, want 2 ids", markets[1].ClobTokenIds)
	}
}

func TestFetchEventBySlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("path = %s, want /events", r.URL.Path)
		}
		if got := r.URL.Query().Get("slug"); got != "who-wins" {
			t.Errorf("slug = %q, want who-wins", got)
		}
		w.Write([]byte(`[{"id":"e1","slug":"who-wins","title":"Who wins?","markets":[
			{"id":"m1","question":"A","volume24hr":10,"clobTokenIds":["t1","t2"],"outcomes":["Yes","No"]}
		]}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client()).WithBaseURL(srv.URL)
	event, err := client.FetchEventBySlug(context.Background(), "who-wins")
	if err != nil {
		t.Fatalf("FetchEventBySlug failed: %v", err)
	}
	if event.ID != "e1" || len(event.Markets) != 1 {
		t.Errorf("event = %+v", event)
	}
}

func TestFetchEventBySlug_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client()).WithBaseURL(srv.URL)
	if _, err := client.FetchEventBySlug(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown slug, got nil")
	}
}

func TestFetchMarkets_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := NewClient(&http.Client{Timeout: 30 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	active := true
	markets, err := client.FetchMarkets(ctx, &Filter{Active: &active, Limit: 5})
	if err != nil {
		t.Fatalf("FetchMarkets failed: %v", err)
	}
	t.Logf("Fetched %d markets", len(markets))
	for i, m := range markets {
		t.Logf("  [%d] %s (vol24h=%.0f, tokens=%d)", i, m.DisplayTitle(), m.Volume24hr, len(m.ClobTokenIds))
	}
}
