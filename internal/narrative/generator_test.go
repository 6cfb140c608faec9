package narrative

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matt0223/house-cup-sub001/internal/model"
	"github.com/matt0223/house-cup-sub001/internal/score"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStory() Story {
	return Story{Angle: AngleFallback, Headline: "Another week", Body: "Body", IsFallback: true}
}

func TestGeneratorDisabled(t *testing.T) {
	g := NewGenerator(Config{}, testLogger())
	if g.Enabled() {
		t.Fatal("empty config should disable the generator")
	}
	if n := g.Generate(context.Background(), model.Challenge{}, testStory(), score.Result{}, nil, nil); n != nil {
		t.Error("disabled generator must return nil")
	}
}

func TestGeneratorSuccess(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Prompt == "" {
			t.Error("prompt should not be empty")
		}
		json.NewEncoder(w).Encode(generateResponse{
			Headline:   "  A strong week  ",
			Body:       "Alice edged it out.",
			InsightTip: "Batch the laundry.",
		})
	}))
	defer srv.Close()

	g := NewGenerator(Config{URL: srv.URL, APIKey: "key123"}, testLogger())
	n := g.Generate(context.Background(), weekChallenge("ch1"), testStory(), score.Result{}, competitors, nil)
	if n == nil {
		t.Fatal("expected a narrative")
	}
	if n.Headline != "A strong week" {
		t.Errorf("headline = %q, want trimmed", n.Headline)
	}
	if n.InsightTip != "Batch the laundry." {
		t.Errorf("tip = %q", n.InsightTip)
	}
	if gotAuth != "Bearer key123" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestGeneratorDropsRepeatedTip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{
			Headline:   "Recap",
			Body:       "Body",
			InsightTip: "batch the LAUNDRY.",
		})
	}))
	defer srv.Close()

	g := NewGenerator(Config{URL: srv.URL, APIKey: "k"}, testLogger())
	n := g.Generate(context.Background(), weekChallenge("ch1"), testStory(), score.Result{}, competitors,
		[]string{"Batch the laundry."})
	if n == nil {
		t.Fatal("expected a narrative")
	}
	if n.InsightTip != "" {
		t.Errorf("repeated tip should be dropped, got %q", n.InsightTip)
	}
}

func TestGeneratorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGenerator(Config{URL: srv.URL, APIKey: "k"}, testLogger())
	if n := g.Generate(context.Background(), weekChallenge("ch1"), testStory(), score.Result{}, nil, nil); n != nil {
		t.Error("server error must yield nil, never a retry")
	}
}

func TestGeneratorMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Headline: "only a headline"})
	}))
	defer srv.Close()

	g := NewGenerator(Config{URL: srv.URL, APIKey: "k"}, testLogger())
	if n := g.Generate(context.Background(), weekChallenge("ch1"), testStory(), score.Result{}, nil, nil); n != nil {
		t.Error("response without a body must be discarded")
	}
}

func TestGeneratorMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer srv.Close()

	g := NewGenerator(Config{URL: srv.URL, APIKey: "k"}, testLogger())
	if n := g.Generate(context.Background(), weekChallenge("ch1"), testStory(), score.Result{}, nil, nil); n != nil {
		t.Error("malformed response must be discarded")
	}
}
