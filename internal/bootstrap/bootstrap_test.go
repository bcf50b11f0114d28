package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/registrar/internal/app/repositories/memory"
	"github.com/yigit/registrar/internal/config"
	"github.com/yigit/registrar/internal/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.BcryptCost = bcrypt.MinCost

	cfg := &config.Config{}
	cfg.Server.StorageDriver = config.StorageMemory
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenExpiration = "1h"
	cfg.JWT.Issuer = "registrar"
	cfg.Redis.RateWindow = "1m"
	cfg.Notifications.FanoutConcurrency = 2

	deps, err := BuildDependencies(context.Background(), cfg, memory.New(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	return &api{t: t, router: SetupRouter(cfg, deps, zerolog.Nop())}
}

func (a *api) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(b)
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
	return rec.Code, env
}

type account struct {
	id    int64
	token string
}

func (a *api) register(name, email, role string) account {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":         name,
		"email":        email,
		"password":     "secret123",
		"role":         role,
		"universityId": "U-" + name,
	})
	require.Equal(a.t, http.StatusCreated, status, string(env.Data))

	var resp struct {
		Token struct {
			AccessToken string `json:"accessToken"`
		} `json:"token"`
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &resp))
	return account{id: resp.User.ID, token: resp.Token.AccessToken}
}

func (a *api) createCourse(prof account, code string, seats int) int64 {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/courses", prof.token, map[string]any{
		"courseCode": code,
		"title":      "Course " + code,
		"semester":   "Fall 2025",
		"totalSeats": seats,
	})
	require.Equal(a.t, http.StatusCreated, status)
	var course struct {
		ID int64 `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &course))
	return course.ID
}

func (a *api) enroll(student account, courseID int64) int64 {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/enrollments", student.token, map[string]any{"courseId": courseID})
	require.Equal(a.t, http.StatusCreated, status)
	var e struct {
		ID int64 `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &e))
	return e.ID
}

func TestHealthAndUnknownRoute(t *testing.T) {
	a := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","storage":"memory"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	status, env := a.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RES_001", env.Error.Code)
}

func TestSwaggerDocCoversAPI(t *testing.T) {
	a := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Swagger  string                                `json:"swagger"`
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "/api/v1", doc.BasePath)

	for _, route := range a.router.Routes() {
		rest, ok := strings.CutPrefix(route.Path, "/api/v1")
		if !ok {
			continue
		}
		segments := strings.Split(rest, "/")
		for i, seg := range segments {
			if name, ok := strings.CutPrefix(seg, ":"); ok {
				segments[i] = "{" + name + "}"
			}
		}
		path := strings.Join(segments, "/")
		assert.Contains(t, doc.Paths[path], strings.ToLower(route.Method), "%s %s is not documented", route.Method, route.Path)
	}
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)
	alice := a.register("Alice", "alice@uni.edu", "student")

	status, env := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Alice 2", "email": "ALICE@uni.edu", "password": "secret123", "role": "student", "universityId": "X",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "RES_002", env.Error.Code)

	status, env = a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Bob", "email": "bob@uni.edu", "password": "secret123", "role": "admin", "universityId": "X",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VAL_001", env.Error.Code)
	assert.Equal(t, "role", env.Error.Field)

	status, _ = a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "alice@uni.edu", "password": "secret123"})
	assert.Equal(t, http.StatusOK, status)

	status, env = a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "alice@uni.edu", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_001", env.Error.Code)

	status, env = a.do(http.MethodGet, "/api/v1/auth/me", alice.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"email":"alice@uni.edu"`)

	status, env = a.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_008", env.Error.Code)

	status, env = a.do(http.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_005", env.Error.Code)
}

func TestCourseEndpoints(t *testing.T) {
	a := newAPI(t)
	prof := a.register("Ada", "ada@uni.edu", "instructor")
	other := a.register("Alan", "alan@uni.edu", "instructor")
	student := a.register("Alice", "alice@uni.edu", "student")

	courseID := a.createCourse(prof, "CS101", 2)

	status, env := a.do(http.MethodPost, "/api/v1/courses", student.token, map[string]any{
		"courseCode": "CS999", "title": "Nope", "semester": "Fall 2025", "totalSeats": 3,
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = a.do(http.MethodPost, "/api/v1/courses", prof.token, map[string]any{
		"courseCode": "CS101", "title": "Again", "semester": "Fall 2025", "totalSeats": 3,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "RES_002", env.Error.Code)

	status, env = a.do(http.MethodPost, "/api/v1/courses", prof.token, map[string]any{
		"courseCode": "CS102", "title": "Zero", "semester": "Fall 2025", "totalSeats": 0,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VAL_001", env.Error.Code)

	status, env = a.do(http.MethodGet, "/api/v1/courses?semester=Fall%202025", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"courseCode":"CS101"`)

	status, _ = a.do(http.MethodGet, fmt.Sprintf("/api/v1/courses/instructor/%d", prof.id), "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = a.do(http.MethodGet, "/api/v1/courses/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VAL_001", env.Error.Code)

	status, _ = a.do(http.MethodGet, "/api/v1/courses/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	path := fmt.Sprintf("/api/v1/courses/%d", courseID)
	status, _ = a.do(http.MethodPut, path, other.token, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = a.do(http.MethodPut, path, prof.token, map[string]any{"totalSeats": 4})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"availableSeats":4`)

	status, _ = a.do(http.MethodDelete, path, other.token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	a.enroll(student, courseID)
	status, env = a.do(http.MethodDelete, path, prof.token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "RES_004", env.Error.Code)

	watchedID := a.createCourse(prof, "CS104", 1)
	status, _ = a.do(http.MethodPost, "/api/v1/notifications/subscribe", student.token, map[string]any{"courseId": watchedID})
	require.Equal(t, http.StatusCreated, status)
	status, env = a.do(http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", watchedID), prof.token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "RES_004", env.Error.Code)

	emptyID := a.createCourse(prof, "CS103", 1)
	status, _ = a.do(http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", emptyID), prof.token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestEnrollmentAndNotificationFlow(t *testing.T) {
	a := newAPI(t)
	prof := a.register("Ada", "ada@uni.edu", "instructor")
	other := a.register("Alan", "alan@uni.edu", "instructor")
	alice := a.register("Alice", "alice@uni.edu", "student")
	bob := a.register("Bob", "bob@uni.edu", "student")
	carol := a.register("Carol", "carol@uni.edu", "student")

	courseID := a.createCourse(prof, "CS233", 1)

	aliceEnrollment := a.enroll(alice, courseID)
	bobEnrollment := a.enroll(bob, courseID)

	status, env := a.do(http.MethodPost, "/api/v1/enrollments", alice.token, map[string]any{"courseId": courseID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "RES_004", env.Error.Code)

	status, _ = a.do(http.MethodPost, "/api/v1/enrollments", prof.token, map[string]any{"courseId": courseID})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = a.do(http.MethodPost, "/api/v1/enrollments", alice.token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)

	approve := func(who account, id int64) (int, envelope) {
		return a.do(http.MethodPost, fmt.Sprintf("/api/v1/enrollments/%d/approve", id), who.token, nil)
	}

	status, _ = approve(other, aliceEnrollment)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = approve(alice, aliceEnrollment)
	assert.Equal(t, http.StatusForbidden, status, "students cannot decide")

	status, env = approve(prof, aliceEnrollment)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"status":"approved"`)

	status, env = approve(prof, bobEnrollment)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "no seats available", env.Error.Message)

	status, env = a.do(http.MethodPost, "/api/v1/notifications/subscribe", carol.token, map[string]any{"courseId": courseID})
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(env.Data), `"kind":"subscription"`)

	status, _ = a.do(http.MethodPost, "/api/v1/notifications/subscribe", carol.token, map[string]any{"courseId": courseID})
	assert.Equal(t, http.StatusConflict, status)

	status, env = a.do(http.MethodPut, fmt.Sprintf("/api/v1/enrollments/%d", aliceEnrollment), prof.token, map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VAL_001", env.Error.Code)

	status, env = a.do(http.MethodPut, fmt.Sprintf("/api/v1/enrollments/%d", aliceEnrollment), prof.token, map[string]any{"status": "rejected"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"status":"rejected"`)

	var alerts []struct {
		ID      int64  `json:"id"`
		Message string `json:"message"`
		Read    bool   `json:"read"`
	}
	for _, s := range []account{bob, carol} {
		status, env = a.do(http.MethodGet, fmt.Sprintf("/api/v1/notifications/%d", s.id), s.token, nil)
		require.Equal(t, http.StatusOK, status)
		require.NoError(t, json.Unmarshal(env.Data, &alerts))
		require.Len(t, alerts, 1)
		assert.Equal(t, "A seat is now available for CS233 - Course CS233", alerts[0].Message)
	}

	status, env = a.do(http.MethodGet, fmt.Sprintf("/api/v1/notifications/%d/unread-count", carol.id), carol.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	status, _ = a.do(http.MethodGet, fmt.Sprintf("/api/v1/notifications/%d", carol.id), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = a.do(http.MethodPut, fmt.Sprintf("/api/v1/notifications/%d/read", alerts[0].ID), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = a.do(http.MethodPut, fmt.Sprintf("/api/v1/notifications/%d/read", alerts[0].ID), carol.token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"read":true`)

	status, _ = a.do(http.MethodDelete, fmt.Sprintf("/api/v1/notifications/subscribe?courseId=%d", courseID), carol.token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = a.do(http.MethodDelete, "/api/v1/notifications/subscribe", carol.token, map[string]any{"courseId": courseID})
	assert.Equal(t, http.StatusNotFound, status)

	status, env = a.do(http.MethodGet, fmt.Sprintf("/api/v1/enrollments/course/%d", courseID), prof.token, nil)
	require.Equal(t, http.StatusOK, status)
	var listed []struct {
		ID          int64  `json:"id"`
		Status      string `json:"status"`
		StudentName string `json:"studentName"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, bobEnrollment, listed[0].ID, "newest first")
	assert.Equal(t, "Bob", listed[0].StudentName)

	status, _ = a.do(http.MethodGet, fmt.Sprintf("/api/v1/enrollments/course/%d", courseID), other.token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = a.do(http.MethodGet, fmt.Sprintf("/api/v1/enrollments/student/%d", alice.id), alice.token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = a.do(http.MethodGet, fmt.Sprintf("/api/v1/enrollments/student/%d", alice.id), bob.token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = a.do(http.MethodGet, fmt.Sprintf("/api/v1/enrollments/student/%d", alice.id), prof.token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(http.MethodPost, "/api/v1/enrollments", alice.token, map[string]any{"courseId": courseID})
	assert.Equal(t, http.StatusConflict, status, "a rejected student cannot apply again")
}

func TestCorsConfig(t *testing.T) {
	all := corsConfig([]string{"http://a.example", "*"})
	assert.True(t, all.AllowAllOrigins)
	assert.False(t, all.AllowCredentials)
	assert.NoError(t, all.Validate())

	listed := corsConfig([]string{"http://a.example"})
	assert.False(t, listed.AllowAllOrigins)
	assert.True(t, listed.AllowCredentials)
	assert.Equal(t, []string{"http://a.example"}, listed.AllowOrigins)
	assert.NoError(t, listed.Validate())
}
