package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appauth "github.com/yigit/uniportal/internal/app/auth"
	"github.com/yigit/uniportal/internal/app/controllers"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/models/dto"
	"github.com/yigit/uniportal/internal/app/repositories/memory"
	"github.com/yigit/uniportal/internal/app/routes"
	"github.com/yigit/uniportal/internal/app/services"
	"github.com/yigit/uniportal/internal/middleware"
	"github.com/yigit/uniportal/internal/pkg/auth"
	"github.com/yigit/uniportal/internal/pkg/email"
	"github.com/yigit/uniportal/internal/pkg/validation"
)

type captureSender struct {
	mu   sync.Mutex
	sent []email.Message
}

func (s *captureSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Pagination *dto.PaginationInfo `json:"pagination"`
	Error      *dto.ErrorDetail    `json:"error"`
}

type testAPI struct {
	t        *testing.T
	router   *gin.Engine
	jwt      *auth.JWTService
	notifier *services.Notifier
	sender   *captureSender
	cs       *models.Department
	phy      *models.Department
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.RegisterGinValidators())
	ctx := context.Background()

	store := memory.New()
	repos := store.Repositories()

	cs := &models.Department{Name: "Computer Science", Code: "CS"}
	phy := &models.Department{Name: "Physics", Code: "PHY"}
	require.NoError(t, repos.Departments.Create(ctx, cs))
	require.NoError(t, repos.Departments.Create(ctx, phy))
	require.NoError(t, repos.Coordinators.Upsert(ctx, &models.Coordinator{Subject: "coord-cs", DepartmentID: cs.ID, Name: "CS Coordinator", IsActive: true}))
	require.NoError(t, repos.Coordinators.Upsert(ctx, &models.Coordinator{Subject: "coord-phy", DepartmentID: phy.ID, Name: "Physics Coordinator", IsActive: true}))

	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "controller-test-secret", AccessTokenExp: time.Hour, TokenIssuer: "uniportal"})
	resolver := appauth.NewRoleResolver(repos.Coordinators, appauth.RoleResolverConfig{AdminSubjects: []string{"admin-1"}, AdminRoleClaim: "admin"})

	sender := &captureSender{}
	notifier := services.NewNotifier(sender, repos.SignupRequests, services.NotifierConfig{}, zerolog.Nop())
	issuer := services.NewCredentialIssuer(services.CredentialIssuerConfig{BcryptCost: bcrypt.MinCost})
	signupService := services.NewSignupRequestService(repos, store, issuer, notifier, services.SignupRequestServiceConfig{}, zerolog.Nop())

	router := gin.New()
	router.Use(middleware.CorrelationID())
	routes.SetupRouter(router,
		controllers.NewDepartmentController(services.NewDepartmentService(repos.Departments)),
		controllers.NewSignupRequestController(signupService),
		middleware.NewAuthMiddleware(jwtService, resolver),
	)

	return &testAPI{t: t, router: router, jwt: jwtService, notifier: notifier, sender: sender, cs: cs, phy: phy}
}

func (a *testAPI) token(subject string, roles ...string) string {
	a.t.Helper()
	token, _, err := a.jwt.IssueToken(subject, roles, time.Hour)
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (a *testAPI) submit(dept *models.Department, cnic string) dto.SignupRequestResponse {
	a.t.Helper()
	rec, env := a.do(http.MethodPost, "/api/v1/requests", "", signupForm(dept.ID, cnic))
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var created dto.SignupRequestResponse
	require.NoError(a.t, json.Unmarshal(env.Data, &created))
	return created
}

func signupForm(departmentID int64, cnic string) map[string]any {
	return map[string]any{
		"departmentId":   departmentID,
		"studentName":    "Bilal Ahmed",
		"fatherName":     "Ahmed Raza",
		"cnic":           cnic,
		"email":          cnic + "@students.example.edu",
		"mobile":         "03211234567",
		"city":           "Karachi",
		"qualification":  "ICS",
		"obtainedMarks":  880,
		"totalMarks":     1100,
		"joiningSession": "Fall 2024",
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec, env := api.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get(middleware.CorrelationIDHeader))
}

func TestDepartments(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(http.MethodGet, "/api/v1/departments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []dto.DepartmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	rec, _ = api.do(http.MethodGet, fmt.Sprintf("/api/v1/departments/%d", api.cs.ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(http.MethodGet, "/api/v1/departments/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrorCodeResourceNotFound, env.Error.Code)

	rec, _ = api.do(http.MethodGet, "/api/v1/departments/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	t.Run("create requires admin", func(t *testing.T) {
		body := map[string]string{"name": "Mathematics", "code": "MTH"}

		rec, _ := api.do(http.MethodPost, "/api/v1/departments", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec, _ = api.do(http.MethodPost, "/api/v1/departments", api.token("coord-cs"), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, env := api.do(http.MethodPost, "/api/v1/departments", api.token("admin-1"), body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created dto.DepartmentResponse
		require.NoError(t, json.Unmarshal(env.Data, &created))
		assert.Equal(t, "MTH", created.Code)

		rec, _ = api.do(http.MethodPost, "/api/v1/departments", api.token("admin-1"), body)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestSubmit(t *testing.T) {
	api := newTestAPI(t)

	created := api.submit(api.cs, "3520212345671")
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, api.cs.ID, created.DepartmentID)

	tests := []struct {
		name       string
		mutate     func(form map[string]any)
		wantStatus int
	}{
		{name: "duplicate pending", mutate: func(map[string]any) {}, wantStatus: http.StatusConflict},
		{name: "unknown department", mutate: func(f map[string]any) { f["departmentId"] = 999; f["cnic"] = "3520212345672" }, wantStatus: http.StatusBadRequest},
		{name: "bad email", mutate: func(f map[string]any) { f["email"] = "nope"; f["cnic"] = "3520212345673" }, wantStatus: http.StatusBadRequest},
		{name: "marks above total", mutate: func(f map[string]any) { f["obtainedMarks"] = 1200; f["cnic"] = "3520212345674" }, wantStatus: http.StatusBadRequest},
		{name: "bad cnic", mutate: func(f map[string]any) { f["cnic"] = "35202-12AB567-1" }, wantStatus: http.StatusBadRequest},
		{name: "missing name", mutate: func(f map[string]any) { delete(f, "studentName"); f["cnic"] = "3520212345675" }, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := signupForm(api.cs.ID, "3520212345671")
			tt.mutate(form)
			rec, _ := api.do(http.MethodPost, "/api/v1/requests", "", form)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestApproveFlow(t *testing.T) {
	api := newTestAPI(t)
	created := api.submit(api.cs, "3520212345671")
	path := "/api/v1/requests/" + created.ID.String()

	rec, env := api.do(http.MethodPatch, path, api.token("coord-cs"), map[string]any{"status": "approved", "note": "welcome"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var result dto.TransitionResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "approved", result.Request.Status)
	require.NotNil(t, result.Request.ResolvedBy)
	assert.Equal(t, "coord-cs", *result.Request.ResolvedBy)
	require.NotNil(t, result.Credential)
	assert.Equal(t, "CS-24-0001", result.Credential.RollNumber)
	assert.NotEmpty(t, result.Credential.TemporaryPassword)

	rec, _ = api.do(http.MethodGet, path, api.token("coord-cs"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "temporaryPassword")
	assert.NotContains(t, rec.Body.String(), result.Credential.TemporaryPassword)

	rec, env = api.do(http.MethodPatch, path, api.token("admin-1"), map[string]any{"status": "declined"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, dto.ErrorCodeAlreadyResolved, env.Error.Code)

	require.NoError(t, api.notifier.Wait(context.Background()))
	assert.Equal(t, 1, api.sender.count())
}

func TestTransitionErrors(t *testing.T) {
	api := newTestAPI(t)
	created := api.submit(api.cs, "3520212345671")
	path := "/api/v1/requests/" + created.ID.String()

	tests := []struct {
		name       string
		path       string
		token      string
		body       any
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{name: "no token", path: path, body: map[string]any{"status": "approved"}, wantStatus: http.StatusUnauthorized, wantCode: dto.ErrorCodeUnauthorized},
		{name: "garbage token", path: path, token: "a.b.c", body: map[string]any{"status": "approved"}, wantStatus: http.StatusUnauthorized, wantCode: dto.ErrorCodeInvalidToken},
		{name: "stranger", path: path, token: api.token("someone"), body: map[string]any{"status": "approved"}, wantStatus: http.StatusForbidden, wantCode: dto.ErrorCodeForbidden},
		{name: "other department", path: path, token: api.token("coord-phy"), body: map[string]any{"status": "declined"}, wantStatus: http.StatusForbidden, wantCode: dto.ErrorCodeForbidden},
		{name: "bad status", path: path, token: api.token("coord-cs"), body: map[string]any{"status": "pending"}, wantStatus: http.StatusBadRequest, wantCode: dto.ErrorCodeValidationFailed},
		{name: "note too long", path: path, token: api.token("coord-cs"), body: map[string]any{"status": "declined", "note": strings.Repeat("x", 1001)}, wantStatus: http.StatusBadRequest, wantCode: dto.ErrorCodeValidationFailed},
		{name: "bad id", path: "/api/v1/requests/not-a-uuid", token: api.token("coord-cs"), body: map[string]any{"status": "approved"}, wantStatus: http.StatusBadRequest, wantCode: dto.ErrorCodeValidationFailed},
		{name: "missing request", path: "/api/v1/requests/00000000-0000-4000-8000-000000000000", token: api.token("coord-cs"), body: map[string]any{"status": "approved"}, wantStatus: http.StatusNotFound, wantCode: dto.ErrorCodeResourceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := api.do(http.MethodPatch, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}

	rec, env := api.do(http.MethodGet, path, api.token("coord-cs"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current dto.SignupRequestResponse
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.Equal(t, "pending", current.Status)
}

func TestConcurrentTransitions(t *testing.T) {
	api := newTestAPI(t)
	created := api.submit(api.cs, "3520212345671")
	path := "/api/v1/requests/" + created.ID.String()

	callers := []struct {
		token  string
		status string
	}{
		{api.token("coord-cs"), "approved"},
		{api.token("admin-1"), "declined"},
		{api.token("coord-cs"), "declined"},
		{api.token("admin-1"), "approved"},
	}

	codes := make([]int, len(callers))
	var wg sync.WaitGroup
	for i, c := range callers {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _ := json.Marshal(map[string]any{"status": c.status})
			req := httptest.NewRequest(http.MethodPatch, path, bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.token)
			rec := httptest.NewRecorder()
			api.router.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}()
	}
	wg.Wait()

	var ok, conflict int
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, len(callers)-1, conflict)
}

func TestList(t *testing.T) {
	api := newTestAPI(t)
	api.submit(api.cs, "3520212345671")
	api.submit(api.cs, "3520212345672")
	phyReq := api.submit(api.phy, "3520212345673")

	decode := func(env envelope) []dto.SignupRequestResponse {
		var items []dto.SignupRequestResponse
		require.NoError(t, json.Unmarshal(env.Data, &items))
		return items
	}

	rec, env := api.do(http.MethodGet, "/api/v1/requests", api.token("coord-cs"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(env)
	assert.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, api.cs.ID, it.DepartmentID)
	}
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(2), env.Pagination.TotalItems)

	rec, _ = api.do(http.MethodGet, fmt.Sprintf("/api/v1/requests?department=%d", api.phy.ID), api.token("coord-cs"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = api.do(http.MethodGet, "/api/v1/requests?size=2&page=1", api.token("admin-1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(env), 2)
	assert.Equal(t, int64(3), env.Pagination.TotalItems)
	assert.Equal(t, 2, env.Pagination.TotalPages)

	rec, _ = api.do(http.MethodPatch, "/api/v1/requests/"+phyReq.ID.String(), api.token("admin-1", "admin"), map[string]any{"status": "declined"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(http.MethodGet, "/api/v1/requests?status=declined", api.token("admin-1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	declined := decode(env)
	require.Len(t, declined, 1)
	assert.Equal(t, phyReq.ID, declined[0].ID)

	for _, q := range []string{"status=archived", "department=x", "notified=maybe"} {
		rec, _ = api.do(http.MethodGet, "/api/v1/requests?"+q, api.token("admin-1"), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestResendNotification(t *testing.T) {
	api := newTestAPI(t)
	created := api.submit(api.cs, "3520212345671")
	path := "/api/v1/requests/" + created.ID.String()

	rec, env := api.do(http.MethodPost, path+"/notifications", api.token("coord-cs"), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, dto.ErrorCodeNotResolved, env.Error.Code)

	rec, _ = api.do(http.MethodPatch, path, api.token("coord-cs"), map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, api.notifier.Wait(context.Background()))

	rec, _ = api.do(http.MethodPost, path+"/notifications", api.token("coord-phy"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = api.do(http.MethodPost, path+"/notifications", api.token("coord-cs"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "temporaryPassword")

	var resp dto.ResendResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, created.ID, resp.RequestID)
	assert.Equal(t, "approved", resp.Status)
	assert.False(t, resp.NotifiedAt.IsZero())
	assert.Equal(t, 2, api.sender.count())
}
