package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/visit-builder-api/internal/builder"
	"github.com/noah-isme/visit-builder-api/internal/dto"
	"github.com/noah-isme/visit-builder-api/internal/middleware"
	"github.com/noah-isme/visit-builder-api/internal/models"
	"github.com/noah-isme/visit-builder-api/internal/service"
	appErrors "github.com/noah-isme/visit-builder-api/pkg/errors"
)

// builderServiceMock embeds the interface so tests only implement what they call.
type builderServiceMock struct {
	scheduleBuilder
	actor      service.Actor
	opened     dto.OpenSessionRequest
	dropResult []builder.DropResult
	save       builder.SaveResult
	err        error
}

func (m *builderServiceMock) Open(ctx context.Context, actor service.Actor, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	m.actor = actor
	m.opened = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SessionResponse{SessionID: "session-1"}, nil
}

func (m *builderServiceMock) Drop(ctx context.Context, actor service.Actor, sessionID string, req dto.ZoneRequest) (*dto.DropResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.DropResponse{Results: m.dropResult}, nil
}

func (m *builderServiceMock) Save(ctx context.Context, actor service.Actor, sessionID string) (*dto.SaveResponse, error) {
	return &dto.SaveResponse{Result: m.save}, m.err
}

func newBuilderContext(method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestScheduleBuilderHandlerOpen(t *testing.T) {
	mock := &builderServiceMock{}
	h := &ScheduleBuilderHandler{service: mock}
	c, w := newBuilderContext(http.MethodPost, "/builder/sessions",
		[]byte(`{"school_id":"school-1","date":"2024-03-04","teacher_ids":["T1"]}`),
		&models.JWTClaims{UserID: "coach-1", Role: models.RoleCoach})

	h.Open(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "coach-1", mock.actor.UserID)
	assert.Equal(t, []string{"T1"}, mock.opened.TeacherIDs)
	assert.Contains(t, w.Body.String(), `"session_id":"session-1"`)
}

func TestScheduleBuilderHandlerOpenMalformed(t *testing.T) {
	h := &ScheduleBuilderHandler{service: &builderServiceMock{}}
	c, w := newBuilderContext(http.MethodPost, "/builder/sessions", []byte(`{"school_id":`), nil)

	h.Open(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleBuilderHandlerDropStatuses(t *testing.T) {
	cases := map[string]struct {
		results []builder.DropResult
		err     error
		status  int
	}{
		"committed": {results: []builder.DropResult{{Success: true}}, status: http.StatusOK},
		"conflict":  {results: []builder.DropResult{{HasConflicts: true}}, status: http.StatusConflict},
		"lookup":    {results: []builder.DropResult{{Error: "fetch commitments: timeout"}}, status: http.StatusBadGateway},
		"expired":   {err: appErrors.ErrSessionExpired, status: http.StatusGone},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := &ScheduleBuilderHandler{service: &builderServiceMock{dropResult: tc.results, err: tc.err}}
			c, w := newBuilderContext(http.MethodPost, "/builder/sessions/session-1/drop",
				[]byte(`{"zone":"observation","start_time":"09:00","end_time":"09:45"}`), nil)

			h.Drop(c)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestDropStatusPrefersTransientFailure(t *testing.T) {
	assert.Equal(t, http.StatusOK, dropStatus(nil))
	assert.Equal(t, http.StatusConflict, dropStatus([]builder.DropResult{{Success: true}, {HasConflicts: true}}))
	assert.Equal(t, http.StatusBadGateway, dropStatus([]builder.DropResult{{Error: "boom"}, {HasConflicts: true}}))
}

func TestScheduleBuilderHandlerSaveFailure(t *testing.T) {
	h := &ScheduleBuilderHandler{service: &builderServiceMock{save: builder.SaveResult{Error: "insert failed"}}}
	c, w := newBuilderContext(http.MethodPost, "/builder/sessions/session-1/save", nil, nil)

	h.Save(c)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "insert failed")
}

type routeCommitments struct {
	lunch builder.Commitment
}

func (r routeCommitments) FetchTeacherCommitments(ctx context.Context, teacherID, date string) ([]builder.Commitment, error) {
	if teacherID == "T2" {
		return []builder.Commitment{r.lunch}, nil
	}
	return nil, nil
}

func (r routeCommitments) BellPeriods(ctx context.Context, schoolID, date string) ([]builder.BellPeriod, error) {
	return []builder.BellPeriod{{Number: 1, Start: "08:00", End: "08:45"}}, nil
}

func TestBuilderRoutesEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService(service.TokenConfig{Secret: "secret"})
	creator := builder.VisitCreatorFunc(func(ctx context.Context, inputs []builder.VisitInput, vc builder.VisitContext) ([]builder.VisitRecord, error) {
		if len(inputs) == 0 {
			return nil, errors.New("unexpected empty save")
		}
		return []builder.VisitRecord{{ID: "visit-1", TeacherID: inputs[0].TeacherID}}, nil
	})
	commitments := routeCommitments{lunch: builder.Commitment{ID: "lunch", TimeSlot: builder.MustTimeSlot("08:00", "08:30"), Kind: "lunch"}}
	svc := service.NewScheduleBuilderService(commitments, creator, nil, service.NewMetricsService(), nil, zap.NewNop(), service.ScheduleBuilderConfig{})

	r := gin.New()
	RegisterRoutes(r, "/api/v1", RouteDeps{
		Builder:   NewScheduleBuilderHandler(svc),
		Metrics:   NewMetricsHandler(service.NewMetricsService(), nil),
		Tokens:    tokens,
		RateLimit: &middleware.RateLimitConfig{RequestsPerMinute: 600, Burst: 100},
	})

	coachToken, err := tokens.IssueToken(models.JWTClaims{UserID: "coach-1", Role: models.RoleCoach}, time.Hour)
	require.NoError(t, err)
	teacherToken, err := tokens.IssueToken(models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}, time.Hour)
	require.NoError(t, err)

	call := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call(http.MethodPost, "/api/v1/builder/sessions", "", `{}`).Code)
	assert.Equal(t, http.StatusForbidden, call(http.MethodPost, "/api/v1/builder/sessions", teacherToken, `{}`).Code)

	opened := call(http.MethodPost, "/api/v1/builder/sessions", coachToken, `{"school_id":"school-1","date":"2024-03-04","teacher_ids":["T1","T2"]}`)
	require.Equal(t, http.StatusCreated, opened.Code)
	var openBody struct {
		Data dto.SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(opened.Body.Bytes(), &openBody))
	base := "/api/v1/builder/sessions/" + openBody.Data.SessionID

	require.Equal(t, http.StatusOK, call(http.MethodPost, base+"/drag", coachToken, `{"teacher_id":"T1"}`).Code)
	assert.Equal(t, http.StatusOK, call(http.MethodPost, base+"/drop", coachToken, `{"zone":"observation","period_number":1}`).Code)

	conflict := call(http.MethodPost, base+"/assignments", coachToken, `{"zone":"debrief","start_time":"08:15","end_time":"08:45","teacher_id":"T2"}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Contains(t, conflict.Body.String(), `"has_conflicts":true`)

	acct := call(http.MethodGet, base+"/accountability", coachToken, "")
	require.Equal(t, http.StatusOK, acct.Code)
	var acctBody struct {
		Data dto.AccountabilityResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(acct.Body.Bytes(), &acctBody))
	assert.Equal(t, builder.Coverage{Total: 2, Assigned: 1, Conflicted: 1, Unassigned: 1}, acctBody.Data.Coverage)

	saved := call(http.MethodPost, base+"/save", coachToken, "")
	require.Equal(t, http.StatusOK, saved.Code)
	assert.Contains(t, saved.Body.String(), `"visit-1"`)

	assert.Equal(t, http.StatusNoContent, call(http.MethodDelete, base, coachToken, "").Code)
	assert.Equal(t, http.StatusNotFound, call(http.MethodGet, base, coachToken, "").Code)

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/health", "", "").Code)
}
