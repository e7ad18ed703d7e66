package storage

import "context"

// Poster is a downloaded poster image ready to be mirrored.
type Poster struct {
	MovieID string
	Data    []byte
	Format  string // image.DecodeConfig format name: jpeg, png, gif, webp
}

// PosterStore mirrors poster images. Posters are content addressed, so
// storing the same bytes twice is a no-op that returns the same key.
type PosterStore interface {
	PutPoster(ctx context.Context, p Poster) (key, url string, err error)
}
