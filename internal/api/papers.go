package api

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"sort"
)

type PaperService struct {
	Options []RequestOption
}

func NewPaperService(opts ...RequestOption) PaperService {
	return PaperService{
		Options: opts,
	}
}

// Pages returns the page numbers of a paper in ascending order.
func (r *PaperService) Pages(ctx context.Context, paperID int64, opts ...RequestOption) ([]int, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	var result struct {
		Pages []struct {
			Page int `json:"page"`
		} `json:"pages"`
	}

	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/papers/%d/pages", paperID), nil, &result); err != nil {
		return nil, err
	}

	pages := make([]int, 0, len(result.Pages))

	for _, p := range result.Pages {
		pages = append(pages, p.Page)
	}

	sort.Ints(pages)

	return pages, nil
}

// PageImage downloads and decodes the rendered image of one page.
func (r *PaperService) PageImage(ctx context.Context, paperID int64, page int, opts ...RequestOption) (image.Image, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	path := fmt.Sprintf("/papers/%d/pages/%d/image", paperID, page)

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)

	if err != nil {
		return nil, err
	}

	resp, err := c.send(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	img, _, err := image.Decode(resp.Body)

	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return img, nil
}
