package catalog

import (
	"fmt"

	"github.com/timmy/cinevibe/internal/config"
	"github.com/timmy/cinevibe/internal/source"
	"github.com/timmy/cinevibe/internal/source/database"
	"github.com/timmy/cinevibe/internal/source/file"
	"github.com/timmy/cinevibe/internal/source/static"
	"github.com/timmy/cinevibe/internal/source/tmdb"
)

// NewSource returns the catalog source selected by cfg.Catalog.Source.
// movies is required only for the database source.
func NewSource(cfg *config.Config, movies database.MovieLister) (source.Source, error) {
	switch cfg.Catalog.Source {
	case "static", "":
		return static.NewAdapter()
	case "file":
		return file.NewAdapter(cfg.Catalog.Path), nil
	case "tmdb":
		return tmdb.NewAdapter(tmdb.Config{
			APIKey:    cfg.TMDB.APIKey,
			BaseURL:   cfg.TMDB.BaseURL,
			ImageBase: cfg.TMDB.ImageBase,
			Language:  cfg.TMDB.Language,
			MaxPages:  cfg.TMDB.MaxPages,
			Timeout:   cfg.TMDB.Timeout,
		}), nil
	case "database":
		if movies == nil {
			return nil, fmt.Errorf("catalog source database requires a database connection")
		}
		return database.NewAdapter(movies), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}
