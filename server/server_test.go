package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mondesavoir/models"
	"mondesavoir/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubHealth struct {
	err error
}

func (s stubHealth) Ping(context.Context) error { return s.err }

type testServer struct {
	users   *service.MockUserService
	scoring *service.MockScoringService
	quiz    *service.MockQuizService
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		users:   new(service.MockUserService),
		scoring: new(service.MockScoringService),
		quiz:    new(service.MockQuizService),
	}
	ts.handler = New(ts.users, ts.scoring, ts.quiz, stubHealth{}).Router([]string{"*"})
	t.Cleanup(func() {
		ts.users.AssertExpectations(t)
		ts.scoring.AssertExpectations(t)
		ts.quiz.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestIndexAndHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Monde Savoir")

	rec = ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["ok"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	handler := New(nil, nil, nil, stubHealth{err: errors.New("connection refused")}).Router([]string{"*"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateUser(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.On("CreateUser", mock.Anything, "alice").
			Return(&models.User{ID: 1, Username: "alice"}, nil)

		rec := ts.do(http.MethodPost, "/users", `{"username":"alice"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, float64(1), body["id"])
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, []any{}, body["badges"])
		assert.Equal(t, float64(0), body["capitalScore"])
	})

	t.Run("validation error", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.On("CreateUser", mock.Anything, "  ").
			Return(nil, service.NewValidationError("username is required"))

		rec := ts.do(http.MethodPost, "/users", `{"username":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "username is required", decodeBody(t, rec)["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/users", `{"username":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure is hidden", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.On("CreateUser", mock.Anything, "bob").
			Return(nil, errors.New("pq: connection reset"))

		rec := ts.do(http.MethodPost, "/users", `{"username":"bob"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal server error", decodeBody(t, rec)["error"])
	})
}

func TestListUsers(t *testing.T) {
	ts := newTestServer(t)
	ts.users.On("ListUsers", mock.Anything).Return([]*models.User{
		{ID: 1, Username: "a", Badges: models.Badges{"Novice"}},
		{ID: 2, Username: "b"},
	}, nil)

	rec := ts.do(http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, []any{"Novice"}, users[0]["badges"])
	assert.Equal(t, []any{}, users[1]["badges"])
}

func TestGetUser(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.On("GetUser", mock.Anything, int64(3)).
			Return(&models.User{ID: 3, Username: "c", Score: 12}, nil)

		rec := ts.do(http.MethodGet, "/users/3", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(12), decodeBody(t, rec)["score"])
	})

	t.Run("not found", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.On("GetUser", mock.Anything, int64(99)).
			Return(nil, &service.NotFoundError{Resource: "user", ID: 99})

		rec := ts.do(http.MethodGet, "/users/99", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "not found")
	})

	t.Run("non numeric id", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodGet, "/users/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestApplyDelta(t *testing.T) {
	t.Run("with category", func(t *testing.T) {
		ts := newTestServer(t)
		category := models.CategoryCapital
		categoryScore := int64(5)
		ts.scoring.On("ApplyDelta", mock.Anything, int64(1), int64(5), "capital").
			Return(&models.ScoreUpdate{
				Score:         15,
				Badges:        models.Badges{"Novice"},
				Category:      &category,
				CategoryScore: &categoryScore,
			}, nil)

		rec := ts.do(http.MethodPost, "/users/1/score", `{"delta":5,"category":"capital"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, float64(15), body["score"])
		assert.Equal(t, []any{"Novice"}, body["badges"])
		assert.Equal(t, "capital", body["category"])
		assert.Equal(t, float64(5), body["categoryScore"])
	})

	t.Run("without category", func(t *testing.T) {
		ts := newTestServer(t)
		ts.scoring.On("ApplyDelta", mock.Anything, int64(1), int64(-3), "").
			Return(&models.ScoreUpdate{Score: -3, Badges: models.Badges{}}, nil)

		rec := ts.do(http.MethodPost, "/users/1/score", `{"delta":-3}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, float64(-3), body["score"])
		assert.NotContains(t, body, "categoryScore")
	})

	t.Run("unknown user", func(t *testing.T) {
		ts := newTestServer(t)
		ts.scoring.On("ApplyDelta", mock.Anything, int64(42), int64(1), "").
			Return(nil, &service.NotFoundError{Resource: "user", ID: 42})

		rec := ts.do(http.MethodPost, "/users/42/score", `{"delta":1}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	for name, body := range map[string]string{
		"missing delta":    `{}`,
		"null delta":       `{"delta":null}`,
		"string delta":     `{"delta":"5"}`,
		"fractional delta": `{"delta":1.5}`,
		"exponent delta":   `{"delta":1e3}`,
	} {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.do(http.MethodPost, "/users/1/score", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestQuiz(t *testing.T) {
	t.Run("correct", func(t *testing.T) {
		ts := newTestServer(t)
		newScore := int64(1)
		ts.quiz.On("SubmitAnswer", mock.Anything, int64(7), "France", "paris").
			Return(&models.QuizResult{Correct: true, NewScore: &newScore, NewBadges: models.Badges{"France"}}, nil)

		rec := ts.do(http.MethodPost, "/quiz", `{"userId":7,"country":"France","answer":"paris"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["correct"])
		assert.Equal(t, float64(1), body["newScore"])
		assert.Equal(t, []any{"France"}, body["newBadges"])
	})

	t.Run("incorrect", func(t *testing.T) {
		ts := newTestServer(t)
		ts.quiz.On("SubmitAnswer", mock.Anything, int64(7), "France", "Lyon").
			Return(&models.QuizResult{Correct: false}, nil)

		rec := ts.do(http.MethodPost, "/quiz", `{"userId":7,"country":"France","answer":"Lyon"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, false, body["correct"])
		assert.NotContains(t, body, "newScore")
		assert.NotContains(t, body, "newBadges")
	})

	t.Run("missing user id is passed as zero", func(t *testing.T) {
		ts := newTestServer(t)
		ts.quiz.On("SubmitAnswer", mock.Anything, int64(0), "France", "Paris").
			Return(nil, service.NewValidationError("userId, country and answer are required"))

		rec := ts.do(http.MethodPost, "/quiz", `{"country":"France","answer":"Paris"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non integer user id", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/quiz", `{"userId":1.5,"country":"France","answer":"Paris"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		ts := newTestServer(t)
		ts.quiz.On("SubmitAnswer", mock.Anything, int64(404), "France", "Paris").
			Return(nil, &service.AuthError{Message: "user is not authenticated or does not exist"})

		rec := ts.do(http.MethodPost, "/quiz", `{"userId":404,"country":"France","answer":"Paris"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t)

	huge := `{"username":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec := ts.do(http.MethodPost, "/users", huge)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body too large", decodeBody(t, rec)["error"])
}

func TestRequestIDHeaderIsAccepted(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseDelta(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "40", want: 40},
		{raw: "-7", want: -7},
		{raw: "0", want: 0},
		{raw: " 3 ", want: 3},
		{raw: "", wantErr: true},
		{raw: "null", wantErr: true},
		{raw: "2.0", wantErr: true},
		{raw: `"2"`, wantErr: true},
		{raw: "true", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseDelta(json.RawMessage(tt.raw))
			if tt.wantErr {
				var validationErr *service.ValidationError
				assert.ErrorAs(t, err, &validationErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
