package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/example/papermark/internal/boxes"
)

type Answer struct {
	MSPaperID int64           `json:"ms_paper_id"`
	Boxes     []boxes.PageBox `json:"boxes"`
}

type AnswerService struct {
	Options []RequestOption
}

func NewAnswerService(opts ...RequestOption) AnswerService {
	return AnswerService{
		Options: opts,
	}
}

// Get returns the stored answer of a question, or nil when there is none.
func (r *AnswerService) Get(ctx context.Context, questionID int64, opts ...RequestOption) (*Answer, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	var result struct {
		Answer *Answer `json:"answer"`
	}

	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/questions/%d/answer", questionID), nil, &result)

	var serr *StatusError

	if errors.As(err, &serr) && serr.Code == http.StatusNotFound {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return result.Answer, nil
}

// Save replaces the answer boxes of a question.
func (r *AnswerService) Save(ctx context.Context, questionID, msPaperID int64, bs []boxes.PageBox, opts ...RequestOption) error {
	c := newRequestConfig(append(r.Options, opts...)...)

	body := Answer{MSPaperID: msPaperID, Boxes: plain(bs)}

	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/questions/%d/answer", questionID), body, nil)
}
