package deptregistry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"notaria-engine/internal/money"
)

func TestNilClientResolvesNothing(t *testing.T) {
	c := New("")
	if c != nil {
		t.Fatal("expected nil client without a URL")
	}
	if got := c.Territories(context.Background(), []string{"75"}); len(got) != 0 {
		t.Fatalf("expected no overrides, got %v", got)
	}
}

func TestTerritoriesFetchesAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/departments/36":
			w.Write([]byte(`{"name":"Indre","mutation_duty_rate":"5.00","vat_rate":"20","dom_tom_surcharge_percent":"0"}`))
		case "/departments/01":
			w.Write([]byte(`{"name":"Ain","mutation_duty_rate":"4.50","vat_rate":"20","dom_tom_surcharge_percent":"0"}`))
		case "/departments/13":
			w.Write([]byte(`{"mutation_duty_rate":"0"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	got := c.Territories(context.Background(), []string{"36", "1", "13", "69", "36", "xx"})
	if len(got) != 2 {
		t.Fatalf("expected 2 overrides, got %d (%v)", len(got), got)
	}
	if !got["36"].MutationDutyRate.Equal(money.New("5")) {
		t.Fatalf("expected rate 5, got %s", got["36"].MutationDutyRate)
	}
	if _, ok := got["01"]; !ok {
		t.Fatal("expected department code 1 to be normalised to 01")
	}
	if n := calls.Load(); n != 4 {
		t.Fatalf("expected 4 requests, got %d", n)
	}

	again := c.Territories(context.Background(), []string{"36", "69"})
	if len(again) != 1 {
		t.Fatalf("expected 1 cached override, got %d", len(again))
	}
	if n := calls.Load(); n != 4 {
		t.Fatalf("expected cached lookups, got %d requests", n)
	}
}

func TestTerritoriesFallsBackWhenDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	got := New(url).Territories(context.Background(), []string{"75"})
	if len(got) != 0 {
		t.Fatalf("expected no overrides, got %v", got)
	}
}

func TestTerritoriesRetriesAfterServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"name":"Indre","mutation_duty_rate":"5.00","vat_rate":"20","dom_tom_surcharge_percent":"0"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if got := c.Territories(context.Background(), []string{"36"}); len(got) != 0 {
		t.Fatalf("expected no override while the registry fails, got %v", got)
	}
	got := c.Territories(context.Background(), []string{"36"})
	if !got["36"].MutationDutyRate.Equal(money.New("5")) {
		t.Fatalf("expected the override once the registry recovers, got %v", got)
	}
	c.Territories(context.Background(), []string{"36"})
	if n := calls.Load(); n != 2 {
		t.Fatalf("expected the success to be cached, got %d requests", n)
	}
}

func TestTerritoriesDoesNotCacheCancelledLookups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Isère","mutation_duty_rate":"5.00","vat_rate":"20","dom_tom_surcharge_percent":"0"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := c.Territories(ctx, []string{"38", "69"}); len(got) != 0 {
		t.Fatalf("expected no overrides with a cancelled context, got %v", got)
	}
	if got := c.Territories(context.Background(), []string{"38", "69"}); len(got) != 2 {
		t.Fatalf("expected both overrides after cancellation, got %v", got)
	}
}
