package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curricula/backend/internal/models"
)

const testToken = "0123456789abcdef0123456789abcdef"

type fakeCreator struct {
	got []*models.PendingSubmission
	err error
}

func (f *fakeCreator) Create(_ context.Context, s *models.PendingSubmission) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.got = append(f.got, s)
	return int64(len(f.got)), nil
}

func newIntakeRouter(store Creator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewIntakeHandler(store, nil)
	r.POST("/api/submissions", RequireToken(testToken), h.Create)
	return r
}

func post(r http.Handler, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/submissions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   string              `json:"error"`
	Details map[string][]string `json:"details"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

const deepWork = `{"title":"Deep Work","url":"https://example.com/deep-work","type":"BOOK",
	"creatorName":"Cal Newport","suggestedCategory":"Productivity"}`

func TestIntakeAuth(t *testing.T) {
	store := &fakeCreator{}
	r := newIntakeRouter(store)

	tests := []struct {
		name  string
		auth  string
		error string
	}{
		{"missing header", "", "Missing or invalid authorization header"},
		{"wrong scheme", "Basic " + testToken, "Missing or invalid authorization header"},
		{"wrong token", "Bearer nope", "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, tt.auth, deepWork)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.error, decode(t, w).Error)
		})
	}
	assert.Empty(t, store.got)
}

func TestIntakeEmptyTokenRejectsEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", RequireToken(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIntakeCreates(t *testing.T) {
	store := &fakeCreator{}
	r := newIntakeRouter(store)

	body := `{"title":"<b>Deep Work</b>","url":"https://example.com/deep-work","type":"BOOK",
		"creatorName":"Cal Newport","suggestedCategory":"Productivity","imageUrl":"",
		"suggestedTags":["focus","<i></i>"],
		"metadata":{"sourceAgent":"scout","confidenceScore":0.9,"runId":"r-42"}}`
	w := post(r, "Bearer "+testToken, body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp CreateResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "Submission received", resp.Message)

	require.Len(t, store.got, 1)
	got := store.got[0]
	assert.Equal(t, "Deep Work", got.Title)
	assert.Equal(t, models.ResourceTypeBook, got.Type)
	assert.Equal(t, []string{"focus"}, got.SuggestedTags)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, "scout", got.Metadata.SourceAgent)
	assert.JSONEq(t, `"r-42"`, string(got.Metadata.Extra["runId"]))
}

func TestIntakeValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		error  string
		field  string
		detail string
	}{
		{
			name:   "invalid json",
			body:   `{"title":`,
			status: http.StatusBadRequest,
			error:  "Invalid JSON in request body",
		},
		{
			name:   "empty body",
			body:   ``,
			status: http.StatusBadRequest,
			error:  "Invalid JSON in request body",
		},
		{
			name:   "missing title",
			body:   `{"url":"https://x.dev","type":"BOOK","creatorName":"A","suggestedCategory":"Design"}`,
			status: http.StatusBadRequest,
			error:  "Validation failed",
			field:  "title",
			detail: "Title is required",
		},
		{
			name:   "bad url",
			body:   `{"title":"T","url":"not a url","type":"BOOK","creatorName":"A","suggestedCategory":"Design"}`,
			status: http.StatusBadRequest,
			error:  "Validation failed",
			field:  "url",
			detail: "Invalid URL",
		},
		{
			name:   "bad type",
			body:   `{"title":"T","url":"https://x.dev","type":"VIDEO","creatorName":"A","suggestedCategory":"Design"}`,
			status: http.StatusBadRequest,
			error:  "Validation failed",
			field:  "type",
			detail: "Type must be one of: BOOK, COURSE, YOUTUBE_SERIES, PODCAST, ARTICLE, COHORT_PROGRAM",
		},
		{
			name:   "bad creator url",
			body:   `{"title":"T","url":"https://x.dev","type":"BOOK","creatorName":"A","creatorUrl":"nope","suggestedCategory":"Design"}`,
			status: http.StatusBadRequest,
			error:  "Validation failed",
			field:  "creatorUrl",
			detail: "Invalid creator URL",
		},
		{
			name:   "confidence out of range",
			body:   `{"title":"T","url":"https://x.dev","type":"BOOK","creatorName":"A","suggestedCategory":"Design","metadata":{"confidenceScore":1.5}}`,
			status: http.StatusBadRequest,
			error:  "Validation failed",
			field:  "metadata",
			detail: models.ErrConfidenceRange.Error(),
		},
		{
			name:   "wrong field type",
			body:   `{"title":42,"url":"https://x.dev","type":"BOOK","creatorName":"A","suggestedCategory":"Design"}`,
			status: http.StatusBadRequest,
			error:  "Validation failed",
			field:  "title",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeCreator{}
			w := post(newIntakeRouter(store), "Bearer "+testToken, tt.body)

			assert.Equal(t, tt.status, w.Code)
			e := decode(t, w)
			assert.Equal(t, tt.error, e.Error)
			if tt.field != "" {
				require.Contains(t, e.Details, tt.field)
			}
			if tt.detail != "" {
				assert.Contains(t, e.Details[tt.field], tt.detail)
			}
			assert.Empty(t, store.got)
		})
	}
}

func TestIntakeRejectsMarkupOnlyRequiredFields(t *testing.T) {
	store := &fakeCreator{}
	body := `{"title":"<b></b>","url":"https://x.dev","type":"BOOK","creatorName":"<i></i>","suggestedCategory":"<p></p>"}`
	w := post(newIntakeRouter(store), "Bearer "+testToken, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	e := decode(t, w)
	assert.Equal(t, "Validation failed", e.Error)
	assert.Equal(t, []string{"Title is required"}, e.Details["title"])
	assert.Equal(t, []string{"Creator name is required"}, e.Details["creatorName"])
	assert.Equal(t, []string{"Suggested category is required"}, e.Details["suggestedCategory"])
	assert.Empty(t, store.got)
}

func TestIntakeInsertFailure(t *testing.T) {
	w := post(newIntakeRouter(&fakeCreator{err: errors.New("db down")}), "Bearer "+testToken, deepWork)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to save submission", decode(t, w).Error)
}
