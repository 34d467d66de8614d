package viewer

import (
	"context"
	"fmt"
	"image"

	"github.com/example/papermark/internal/api"
	"github.com/example/papermark/internal/cache"
)

type pageKey struct {
	paper int64
	page  int
}

// Pages fetches page images through a bounded cache.
type Pages struct {
	client *api.Client
	cache  *cache.Cache[pageKey, image.Image]
}

// NewPages caches up to size page images.
func NewPages(client *api.Client, size int) *Pages {
	return &Pages{client: client, cache: cache.New[pageKey, image.Image](size)}
}

// Get returns the rendered image of one page.
func (p *Pages) Get(ctx context.Context, paper int64, page int) (image.Image, error) {
	k := pageKey{paper, page}
	if img, ok := p.cache.Get(k); ok {
		return img, nil
	}
	img, err := p.client.Papers.PageImage(ctx, paper, page)
	if err != nil {
		return nil, fmt.Errorf("page %d of paper %d: %w", page, paper, err)
	}
	p.cache.Put(k, img)
	return img, nil
}

// Len returns the number of cached images.
func (p *Pages) Len() int { return p.cache.Len() }
