package ranking

import "github.com/timmy/cinevibe/internal/domain"

func movie(id string, tags []string, hue, tempo, edge float64) domain.Movie {
	return domain.Movie{
		ID:    id,
		Title: id,
		Tags:  domain.StringArray(tags),
		Hue:   domain.Float(hue),
		Tempo: domain.Float(tempo),
		Edge:  domain.Float(edge),
	}
}

func testCatalog() []domain.Movie {
	return []domain.Movie{
		movie("la-la-land", []string{"romantic", "upbeat"}, 50, 0.7, 0.4),
		movie("blade-runner-2049", []string{"gritty", "mysterious", "surreal"}, 220, 0.35, 0.75),
		movie("grand-budapest-hotel", []string{"cozy", "surreal", "dark comedy"}, 310, 0.6, 0.3),
		movie("lost-in-translation", []string{"melancholic", "romantic"}, 260, 0.3, 0.25),
		movie("baby-driver", []string{"upbeat", "gritty"}, 350, 0.95, 0.7),
	}
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}
