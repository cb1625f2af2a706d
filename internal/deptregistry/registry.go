// Package deptregistry fetches department rate overrides from a remote registry. Any
// failure falls back to the built-in tables for that department.
package deptregistry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"notaria-engine/internal/rates"
)

type entry struct {
	territory rates.Territory
	ok        bool
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   sync.Map
}

// New returns nil when baseURL is empty; a nil client resolves no overrides.
func New(baseURL string) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 2 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Territories fetches the given departments, from cache when possible and
// concurrently otherwise. Departments the registry cannot serve are left out.
func (c *Client) Territories(ctx context.Context, codes []string) map[string]rates.Territory {
	result := make(map[string]rates.Territory, len(codes))
	if c == nil {
		return result
	}

	var toFetch []string
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = rates.NormalizeDepartment(code)
		if seen[code] || !rates.ValidDepartment(code) {
			continue
		}
		seen[code] = true
		if e, ok := c.cache.Load(code); ok {
			if e := e.(entry); e.ok {
				result[code] = e.territory
			}
			continue
		}
		toFetch = append(toFetch, code)
	}

	if len(toFetch) == 0 {
		return result
	}

	if len(toFetch) == 1 {
		e := c.lookup(ctx, toFetch[0])
		if e.ok {
			result[toFetch[0]] = e.territory
		}
		return result
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, code := range toFetch {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			e := c.lookup(ctx, code)
			if e.ok {
				mu.Lock()
				result[code] = e.territory
				mu.Unlock()
			}
		}(code)
	}
	wg.Wait()

	return result
}

// lookup fetches code and caches the answer when the registry gave a definitive one.
// Transport failures and server errors are retried on the next request.
func (c *Client) lookup(ctx context.Context, code string) entry {
	e, final := c.fetch(ctx, code)
	if final && ctx.Err() == nil {
		c.cache.Store(code, e)
	}
	return e
}

func (c *Client) fetch(ctx context.Context, code string) (entry, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/departments/"+code, nil)
	if err != nil {
		return entry{}, false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("department registry unavailable", "department", code, "error", err)
		return entry{}, false
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return entry{}, true
	default:
		io.Copy(io.Discard, resp.Body)
		slog.Warn("department registry error", "department", code, "status", resp.StatusCode)
		return entry{}, false
	}

	var terr rates.Territory
	if err := json.NewDecoder(resp.Body).Decode(&terr); err != nil {
		if ctx.Err() != nil {
			return entry{}, false
		}
		slog.Warn("department registry returned an invalid body", "department", code, "error", err)
		return entry{}, true
	}
	if !terr.MutationDutyRate.IsPositive() || terr.VATRate.IsNegative() || terr.SurchargePercent.IsNegative() {
		return entry{}, true
	}
	return entry{territory: terr, ok: true}, true
}
