package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/shared"
	tu "github.com/desertthunder/vibecast/internal/testing"
)

func TestEnricher(t *testing.T) {
	song := models.RecommendedSong{Name: "Holocene", Artist: "Bon Iver", Reason: "Same hush"}

	t.Run("Hit", func(t *testing.T) {
		catalog := &tu.MockCatalog{Hit: &services.SearchHit{ID: "x", CoverArt: "https://img", PreviewURL: "https://pre"}}
		got := NewEnricher(catalog, nil).Enrich(context.Background(), song, "tok")

		if got.CoverArt != "https://img" || got.PreviewURL != "https://pre" {
			t.Errorf("expected enrichment, got %+v", got)
		}
		if got.Name != song.Name || got.Reason != song.Reason {
			t.Errorf("expected original fields kept, got %+v", got)
		}
		if catalog.Tokens[0] != "tok" {
			t.Errorf("expected caller token forwarded")
		}
	})

	t.Run("Partial Hit", func(t *testing.T) {
		catalog := &tu.MockCatalog{Hit: &services.SearchHit{ID: "x", CoverArt: "https://img"}}
		got := NewEnricher(catalog, nil).Enrich(context.Background(), song, "tok")
		if got.CoverArt != "https://img" || got.PreviewURL != "" {
			t.Errorf("expected cover art only, got %+v", got)
		}
	})

	t.Run("No Match Returns Input", func(t *testing.T) {
		got := NewEnricher(&tu.MockCatalog{}, nil).Enrich(context.Background(), song, "tok")
		if got != song {
			t.Errorf("expected unchanged song, got %+v", got)
		}
	})

	t.Run("Search Failure Returns Input", func(t *testing.T) {
		catalog := &tu.MockCatalog{SearchErr: &shared.UpstreamError{Op: "search", StatusCode: 500}}
		got := NewEnricher(catalog, nil).Enrich(context.Background(), song, "tok")
		if got != song {
			t.Errorf("expected unchanged song, got %+v", got)
		}
	})

	t.Run("Unauthenticated Returns Input", func(t *testing.T) {
		catalog := &tu.MockCatalog{SearchErr: errors.New("boom")}
		got := NewEnricher(catalog, nil).Enrich(context.Background(), song, "")
		if got != song {
			t.Errorf("expected unchanged song, got %+v", got)
		}
	})
}
