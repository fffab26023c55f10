package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ppiankov/claimstream/internal/model"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("action"); got != "opensearch" {
			t.Errorf("action = %q", got)
		}
		if got := r.URL.Query().Get("search"); got != "eiffel tower" {
			t.Errorf("search = %q", got)
		}
		_, _ = w.Write([]byte(`["eiffel tower",["Eiffel Tower","Eiffel Tower replicas"],["",""],["https://en.wikipedia.org/wiki/Eiffel_Tower","https://en.wikipedia.org/wiki/Eiffel_Tower_replicas"]]`))
	}))
	defer srv.Close()

	s := NewSearcher(srv.URL, "test-agent", 2*time.Second)
	pages, err := s.Search(context.Background(), "eiffel tower", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].Title != "Eiffel Tower" || pages[0].URL != "https://en.wikipedia.org/wiki/Eiffel_Tower" {
		t.Errorf("first page = %+v", pages[0])
	}
}

func TestSearchMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["only","two"]`))
	}))
	defer srv.Close()

	s := NewSearcher(srv.URL, "test-agent", 2*time.Second)
	if _, err := s.Search(context.Background(), "anything", 2); err == nil {
		t.Error("expected error for truncated opensearch reply")
	}
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewSearcher(srv.URL, "test-agent", 2*time.Second)
	if _, err := s.Search(context.Background(), "anything", 2); err == nil {
		t.Error("expected error for 503")
	}
}

func TestSearchQuery(t *testing.T) {
	c := model.ValidatedClaim{ClaimText: "The Eiffel Tower is 330 metres tall."}
	if got := SearchQuery(c); got != "eiffel tower 330 metres tall" {
		t.Errorf("SearchQuery = %q", got)
	}

	long := model.ValidatedClaim{ClaimText: "alpha beta gamma delta epsilon zeta theta kappa"}
	if got := SearchQuery(long); got != "alpha beta gamma delta epsilon zeta" {
		t.Errorf("SearchQuery capped = %q", got)
	}
}
