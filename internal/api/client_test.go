package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/papermark/internal/api"
	"github.com/example/papermark/internal/api/apitest"
	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/geom"
)

func TestQuestionLifecycle(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := srv.Client()
	ctx := context.Background()

	notes := "two parts"
	q, err := c.Questions.Create(ctx, 7, api.QuestionInput{
		Sections: []string{"1a"},
		Notes:    &notes,
		Boxes: []boxes.PageBox{
			{Page: 2, BBox: geom.Box{0.1, 0.1, 0.5, 0.2}, Source: boxes.SourceOCR, DraftIdx: 3},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), q.ID)
	require.Equal(t, api.StatusConfirmed, q.Status)

	stored, ok := srv.Question(q.ID)
	require.True(t, ok)
	require.Equal(t, "", stored.Boxes[0].Source, "draft tags are not sent")

	page2, err := c.Questions.ListPage(ctx, 7, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)

	page3, err := c.Questions.ListPage(ctx, 7, 3)
	require.NoError(t, err)
	require.Empty(t, page3)

	require.NoError(t, c.Questions.UpdateMeta(ctx, q.ID, []string{"1b"}, nil))
	require.NoError(t, c.Questions.SetBoxes(ctx, q.ID, []boxes.PageBox{{Page: 4, BBox: geom.Box{0, 0, 1, 1}}}))

	got, err := c.Questions.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"1b"}, got.Sections)
	require.Nil(t, got.Notes)
	require.Equal(t, 4, got.Boxes[0].Page)

	require.NoError(t, c.Questions.Delete(ctx, q.ID))
	require.Equal(t, 0, srv.Count())

	var serr *api.StatusError
	_, err = c.Questions.Get(ctx, q.ID)
	require.True(t, errors.As(err, &serr))
	require.Equal(t, http.StatusNotFound, serr.Code)
}

func TestCreateFailureIsStatusError(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := srv.Client()

	srv.FailNext(http.MethodPost, "/papers/{paper}/questions", http.StatusInternalServerError)

	_, err := c.Questions.Create(context.Background(), 1, api.QuestionInput{Sections: []string{"1"}})
	var serr *api.StatusError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, http.StatusInternalServerError, serr.Code)
	require.Equal(t, 0, srv.Count())

	_, err = c.Questions.Create(context.Background(), 1, api.QuestionInput{Sections: []string{"1"}})
	require.NoError(t, err, "failure applies to one request")
}

func TestCreateWithoutID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"question":{}}`))
	}))
	defer ts.Close()

	c := api.New(ts.URL)
	_, err := c.Questions.Create(context.Background(), 1, api.QuestionInput{})
	require.Error(t, err)
}

func TestAnswerMissingIsNil(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := srv.Client()
	ctx := context.Background()

	id := srv.Seed(1, api.Question{Sections: []string{"2"}})

	a, err := c.Answers.Get(ctx, id)
	require.NoError(t, err)
	require.Nil(t, a)

	require.NoError(t, c.Answers.Save(ctx, id, 9, []boxes.PageBox{{Page: 1, BBox: geom.Box{0.2, 0.2, 0.4, 0.3}}}))

	a, err = c.Answers.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(9), a.MSPaperID)
	require.Len(t, a.Boxes, 1)
}

func TestPagesAndImage(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := srv.Client()
	ctx := context.Background()

	srv.AddPaper(3, 2, 1, 3)

	pages, err := c.Papers.Pages(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, pages)

	img, err := c.Papers.PageImage(ctx, 3, 1)
	require.NoError(t, err)
	require.Equal(t, apitest.PageSize, img.Bounds().Size())
}

func TestTokenAndRequestID(t *testing.T) {
	var auth, reqID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		reqID = r.Header.Get("X-Request-Id")
		_, _ = w.Write([]byte(`{"questions":[]}`))
	}))
	defer ts.Close()

	c := api.New(ts.URL+"/", api.WithToken("secret"))
	_, err := c.Questions.List(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Bearer secret", auth)
	require.NotEmpty(t, reqID)
}
