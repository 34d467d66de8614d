package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/example/papermark/internal/boxes"
)

// Question statuses.
const (
	StatusConfirmed = "confirmed"
	StatusDraft     = "draft"
)

type Question struct {
	ID       int64           `json:"id"`
	PaperID  int64           `json:"paper_id"`
	Sections []string        `json:"sections"`
	Status   string          `json:"status"`
	Notes    *string         `json:"notes"`
	Boxes    []boxes.PageBox `json:"boxes"`
}

type QuestionInput struct {
	Sections []string        `json:"sections"`
	Status   string          `json:"status,omitempty"`
	Notes    *string         `json:"notes"`
	Boxes    []boxes.PageBox `json:"boxes,omitempty"`
}

type QuestionService struct {
	Options []RequestOption
}

func NewQuestionService(opts ...RequestOption) QuestionService {
	return QuestionService{
		Options: opts,
	}
}

type questionList struct {
	Questions []Question `json:"questions"`
}

type questionEnvelope struct {
	Question Question `json:"question"`
}

// List returns every question of a paper.
func (r *QuestionService) List(ctx context.Context, paperID int64, opts ...RequestOption) ([]Question, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	var result questionList

	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/papers/%d/questions", paperID), nil, &result); err != nil {
		return nil, err
	}

	return result.Questions, nil
}

// ListPage returns the questions with at least one box on page.
func (r *QuestionService) ListPage(ctx context.Context, paperID int64, page int, opts ...RequestOption) ([]Question, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	var result questionList

	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/papers/%d/pages/%d/questions", paperID, page), nil, &result); err != nil {
		return nil, err
	}

	return result.Questions, nil
}

func (r *QuestionService) Get(ctx context.Context, id int64, opts ...RequestOption) (*Question, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	var result questionEnvelope

	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/questions/%d", id), nil, &result); err != nil {
		return nil, err
	}

	return &result.Question, nil
}

// Create stores a new question and returns it with its assigned id.
func (r *QuestionService) Create(ctx context.Context, paperID int64, input QuestionInput, opts ...RequestOption) (*Question, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	if input.Status == "" {
		input.Status = StatusConfirmed
	}

	input.Boxes = plain(input.Boxes)

	var result questionEnvelope

	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/papers/%d/questions", paperID), input, &result); err != nil {
		return nil, err
	}

	if result.Question.ID == 0 {
		return nil, fmt.Errorf("create question: response carries no id")
	}

	return &result.Question, nil
}

// UpdateMeta replaces sections and notes.
func (r *QuestionService) UpdateMeta(ctx context.Context, id int64, sections []string, notes *string, opts ...RequestOption) error {
	c := newRequestConfig(append(r.Options, opts...)...)

	body := QuestionInput{Sections: sections, Notes: notes}

	if body.Sections == nil {
		body.Sections = []string{}
	}

	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/questions/%d", id), body, nil)
}

// SetBoxes replaces the boxes of a question.
func (r *QuestionService) SetBoxes(ctx context.Context, id int64, bs []boxes.PageBox, opts ...RequestOption) error {
	c := newRequestConfig(append(r.Options, opts...)...)

	body := struct {
		Boxes []boxes.PageBox `json:"boxes"`
	}{plain(bs)}

	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/questions/%d/boxes", id), body, nil)
}

func (r *QuestionService) Delete(ctx context.Context, id int64, opts ...RequestOption) error {
	c := newRequestConfig(append(r.Options, opts...)...)

	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/questions/%d", id), nil, nil)
}

func plain(bs []boxes.PageBox) []boxes.PageBox {
	out := make([]boxes.PageBox, 0, len(bs))

	for _, b := range bs {
		out = append(out, b.Plain())
	}

	return out
}
