package candidates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestScanCandidatesFollowsPages(t *testing.T) {
	t.Parallel()

	pages := [][]map[string]any{
		{
			{"id": "j1", "title": "Backend Engineer", "company": "Acme", "url": "https://boards.greenhouse.io/acme/jobs/1", "match_score": 91},
		},
		{
			{"id": "j2", "title": "Platform Engineer", "company": "Globex", "url": "https://jobs.lever.co/globex/2", "match_score": 77},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/u1/candidates" {
			http.NotFound(w, r)
			return
		}
		page := 0
		if r.URL.Query().Get("page") == "1" {
			page = 1
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items":    pages[page],
			"found":    2,
			"pages":    2,
			"page":     page,
			"per_page": 1,
		})
	}))
	defer server.Close()

	client := New(server.URL, "token", zap.NewNop())

	candidates, err := client.ScanCandidates(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates across pages, got %d", len(candidates))
	}
	if candidates[0].ID != "j1" || candidates[1].ID != "j2" {
		t.Fatalf("expected source order preserved, got %s then %s", candidates[0].ID, candidates[1].ID)
	}
	if candidates[0].MatchScore != 91 {
		t.Fatalf("expected decoded match score 91, got %d", candidates[0].MatchScore)
	}
}

func TestScanCandidatesBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "", zap.NewNop())

	if _, err := client.ScanCandidates(context.Background(), "u1"); err == nil {
		t.Fatal("expected error on bad status")
	}
}
