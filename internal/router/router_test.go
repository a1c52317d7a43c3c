package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/riskwatch-backend/internal/config"
	"github.com/stemsi/riskwatch-backend/internal/handler"
	"github.com/stemsi/riskwatch-backend/internal/middleware"
	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/response"
	"github.com/stemsi/riskwatch-backend/internal/service"
	"github.com/stemsi/riskwatch-backend/internal/validator"
)

const password = "s3cret-pass"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

type testServer struct {
	router *gin.Engine
	store  *memStore
}

func student(id int, name string, grade float64) model.StudentRecord {
	return model.StudentRecord{
		StudentID:       id,
		Name:            name,
		Gender:          model.GenderMale,
		AttendanceRate:  85,
		ParentalSupport: model.ParentalSupportHigh,
		FinalGrade:      grade,
		Email:           strings.ToLower(name) + "@uni.edu",
	}
}

func newTestServer(t *testing.T, predictor service.Predictor) *testServer {
	t.Helper()
	nop := zerolog.Nop()
	cfg := &config.Config{
		GinMode:        gin.TestMode,
		JWTSecret:      "router-secret",
		JWTExpiry:      time.Hour,
		BcryptCost:     4,
		MaxUploadBytes: 1 << 20,
	}

	store := newMemStore()
	for _, s := range []model.StudentRecord{
		student(1, "John", 72), student(2, "Sarah", 55), student(3, "Li", 90), student(4, "Omar", 61),
	} {
		store.students[s.StudentID] = s
	}
	store.risks[1] = model.RiskFlags{StudentID: 1, UnderperformRisk: true}
	store.risks[2] = model.RiskFlags{StudentID: 2, DropoutRisk: true, UnderperformRisk: true}
	store.risks[4] = model.RiskFlags{StudentID: 4, DropoutRisk: true}

	students, risks, advisors := studentStore{store}, riskStore{store}, advisorStore{store}
	predictions, alerts, sessions := predictionStore{store}, alertStore{store}, sessionStore{store}
	queue := alertQueue{store}

	authService := service.NewAuthService(cfg, advisors, sessions)
	hash, err := authService.HashPassword(password)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, advisors.Create(ctx, &model.Advisor{Email: "admin@uni.edu", Name: "Admin", PasswordHash: hash, Role: model.RoleAdmin}))
	require.NoError(t, advisors.Create(ctx, &model.Advisor{Email: "grey@uni.edu", Name: "Dr. Grey", PasswordHash: hash, Role: model.RoleAdvisor, Students: []int{1, 2, 3}}))

	advisorService := service.NewAdvisorService(advisors, sessions, authService, nop)
	viewService := service.NewStudentViewService(students, risks, advisors, predictions)
	importService := service.NewImportService(students, risks, nop)
	predictionService := service.NewPredictionService(predictor, predictions, notifier{store}, nop)
	alertService := service.NewAlertService(viewService, advisors, alerts, queue, nop)
	dashboardService := service.NewDashboardService(viewService)
	notificationService := service.NewNotificationService(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))

	ok := handler.PingFunc(func(context.Context) error { return nil })
	handlers := &Handlers{
		Auth:        handler.NewAuthHandler(authService, advisorService),
		Student:     handler.NewStudentHandler(viewService, nop),
		StudentMgmt: handler.NewStudentManagementHandler(viewService, importService, cfg.MaxUploadBytes, nop),
		Advisor:     handler.NewAdvisorHandler(advisorService, alertService, nop),
		Prediction:  handler.NewPredictionHandler(predictionService),
		Alert:       handler.NewAlertHandler(alertService, nop),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		WS:          handler.NewWSHandler(authService, notificationService, nop, nil),
		System:      handler.NewSystemHandler(ok, ok, queue, nop),
	}

	limiter := middleware.NewRateLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)

	return &testServer{
		router: SetupRouter(authService, handlers, limiter, cfg),
		store:  store,
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   response.ErrCode  `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Pagination *response.Pagination `json:"pagination"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/auth/advisor/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Token
}

type studentsData struct {
	Message  string                    `json:"message"`
	Students []model.ReconciledStudent `json:"students"`
	Count    int                       `json:"count"`
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func studentIDs(xs []model.ReconciledStudent) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		out[i] = x.StudentID
	}
	return out
}

func TestHealthAndConnectionStatus(t *testing.T) {
	s := newTestServer(t, stubPredictor{})

	w, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, env := s.do(t, http.MethodGet, "/api/v1/system/db", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"postgres":"ok","redis":"ok"}`, string(env.Data))
}

func TestLoginAndProfile(t *testing.T) {
	s := newTestServer(t, stubPredictor{})

	w, env := s.do(t, http.MethodPost, "/api/v1/auth/advisor/login", "", gin.H{"email": "grey@uni.edu", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrInvalidCredentials, env.Error.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/auth/advisor/login", "", gin.H{"email": "not-an-email", "password": password})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrValidation, env.Error.Code)
	assert.Contains(t, env.Error.Fields, "email")

	token := s.login(t, "GREY@uni.edu")
	w, env = s.do(t, http.MethodGet, "/api/v1/auth/advisor/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Advisor model.Advisor `json:"advisor"`
	}
	decode(t, env, &me)
	assert.Equal(t, "Dr. Grey", me.Advisor.Name)
	assert.Equal(t, []int{1, 2, 3}, me.Advisor.Students)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, stubPredictor{})

	first := s.login(t, "grey@uni.edu")
	second := s.login(t, "grey@uni.edu")

	w, env := s.do(t, http.MethodGet, "/api/v1/advisor/students", first, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrSessionInvalidated, env.Error.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/advisor/students", second, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/advisor/logout", second, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/v1/advisor/students", second, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/advisor/students", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrTokenRequired, env.Error.Code)
}

func TestAdvisorStudentView(t *testing.T) {
	s := newTestServer(t, stubPredictor{})
	token := s.login(t, "grey@uni.edu")

	w, env := s.do(t, http.MethodGet, "/api/v1/advisor/students", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var data studentsData
	decode(t, env, &data)
	assert.Equal(t, []int{1, 2, 3}, studentIDs(data.Students))
	assert.Equal(t, 3, data.Count)
	assert.Equal(t, model.TierMediumRisk, data.Students[0].RiskClass)
	assert.Equal(t, model.LabelAtRisk, data.Students[0].Underperform)

	_, env = s.do(t, http.MethodGet, "/api/v1/advisor/students?tier=high-risk", token, nil)
	decode(t, env, &data)
	assert.Equal(t, []int{2}, studentIDs(data.Students))

	_, env = s.do(t, http.MethodGet, "/api/v1/advisor/students?sort=FinalGrade&order=DESC", token, nil)
	decode(t, env, &data)
	assert.Equal(t, []int{3, 1, 2}, studentIDs(data.Students))

	w, env = s.do(t, http.MethodGet, "/api/v1/advisor/students?sort=shoeSize", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrUnknownField, env.Error.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/advisor/students?tier=extreme", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrValidation, env.Error.Code)
	assert.Contains(t, env.Error.Fields, "tier")
}

func TestStudentsByIDs(t *testing.T) {
	s := newTestServer(t, stubPredictor{})
	token := s.login(t, "grey@uni.edu")

	w, env := s.do(t, http.MethodPost, "/api/v1/advisor/students/by-ids", token, gin.H{"studentIds": []int{4, 2, 99}})
	require.Equal(t, http.StatusOK, w.Code)

	var data studentsData
	decode(t, env, &data)
	assert.Equal(t, []int{2, 4}, studentIDs(data.Students))
	assert.Equal(t, "Found 2 of 3 requested students", data.Message)

	w, _ = s.do(t, http.MethodPost, "/api/v1/advisor/students/by-ids", token, gin.H{"studentIds": []int{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportStudents(t *testing.T) {
	s := newTestServer(t, stubPredictor{})
	token := s.login(t, "grey@uni.edu")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/advisor/students/export?tier=high-risk", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w, _ := s.serve(t, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="students-assigned.csv"`, w.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "StudentID,Name,"))
	assert.True(t, strings.HasPrefix(lines[1], "2,Sarah,"))
}

func TestPredictionFlow(t *testing.T) {
	s := newTestServer(t, stubPredictor{})
	token := s.login(t, "grey@uni.edu")

	body := gin.H{"students": []gin.H{{
		"StudentID": 9, "Name": "Noor", "Gender": "Female", "AttendanceRate": 40,
		"StudyHoursPerWeek": 2, "PreviousGrade": 45, "ExtracurricularActivities": 0,
		"ParentalSupport": "Low", "FinalGrade": 38, "Email": "noor@uni.edu",
	}}}
	w, env := s.do(t, http.MethodPost, "/api/v1/advisor/predictions", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data studentsData
	decode(t, env, &data)
	require.Len(t, data.Students, 1)
	assert.Equal(t, model.TierHighRisk, data.Students[0].RiskClass)
	assert.Equal(t, model.ProvenancePredicted, data.Students[0].Source)
	require.Len(t, s.store.notes[2], 1)

	_, env = s.do(t, http.MethodGet, "/api/v1/advisor/students?view=all", token, nil)
	decode(t, env, &data)
	assert.Equal(t, []int{1, 2, 3, 9}, studentIDs(data.Students))

	w, env = s.do(t, http.MethodDelete, "/api/v1/advisor/predictions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":1}`, string(env.Data))

	w, env = s.do(t, http.MethodPost, "/api/v1/advisor/predictions", token, gin.H{"students": []gin.H{{"StudentID": 0}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrValidation, env.Error.Code)
}

func TestPredictionPredictorDown(t *testing.T) {
	s := newTestServer(t, stubPredictor{err: errors.New("connection refused")})
	token := s.login(t, "grey@uni.edu")

	body := gin.H{"students": []gin.H{{
		"StudentID": 9, "Name": "Noor", "Gender": "Female", "ParentalSupport": "Low", "FinalGrade": 38,
	}}}
	w, env := s.do(t, http.MethodPost, "/api/v1/advisor/predictions", token, body)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, response.ErrPredictorUnavailable, env.Error.Code)
}

func TestAlerts(t *testing.T) {
	s := newTestServer(t, stubPredictor{})
	token := s.login(t, "grey@uni.edu")

	w, env := s.do(t, http.MethodPost, "/api/v1/advisor/alerts", token, gin.H{"studentId": 2, "note": "call home"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var data struct {
		Alert model.AlertJob `json:"alert"`
	}
	decode(t, env, &data)
	assert.Equal(t, model.TierHighRisk, data.Alert.Tier)
	assert.Equal(t, "sarah@uni.edu", data.Alert.Recipient)
	require.Len(t, s.store.jobs, 1)

	w, env = s.do(t, http.MethodPost, "/api/v1/advisor/alerts", token, gin.H{"studentId": 2})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.ErrAlertAlreadyQueued, env.Error.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/advisor/alerts", token, gin.H{"studentId": 4})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrStudentNotInView, env.Error.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/advisor/alerts?per_page=10", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalItems)
	assert.Equal(t, 1, env.Pagination.TotalPages)
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, stubPredictor{})
	token := s.login(t, "grey@uni.edu")

	w, env := s.do(t, http.MethodGet, "/api/v1/advisor/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var d service.Dashboard
	decode(t, env, &d)
	assert.Equal(t, 3, d.Summary.Total)
	assert.Equal(t, 1, d.Summary.ByTier[model.TierHighRisk])
	assert.Equal(t, []int{2}, studentIDs(d.HighRisk))
}

func TestAdminRequiresRole(t *testing.T) {
	s := newTestServer(t, stubPredictor{})
	token := s.login(t, "grey@uni.edu")

	w, env := s.do(t, http.MethodGet, "/api/v1/admin/advisors", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.ErrAdminAccessOnly, env.Error.Code)
}

func TestAdminAdvisorManagement(t *testing.T) {
	s := newTestServer(t, stubPredictor{})
	admin := s.login(t, "admin@uni.edu")

	w, env := s.do(t, http.MethodPost, "/api/v1/admin/advisors", admin, gin.H{
		"email": "new@uni.edu", "advisor_name": "New Advisor", "password": "password1", "students": []int{4},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Advisor model.Advisor `json:"advisor"`
	}
	decode(t, env, &created)
	id := created.Advisor.ID
	assert.Equal(t, model.RoleAdvisor, created.Advisor.Role)

	w, env = s.do(t, http.MethodPost, "/api/v1/admin/advisors", admin, gin.H{
		"email": "NEW@uni.edu", "advisor_name": "Again", "password": "password1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.ErrDuplicateEmail, env.Error.Code)

	rosterPath := fmt.Sprintf("/api/v1/admin/advisors/%d/students", id)
	w, env = s.do(t, http.MethodPut, rosterPath, admin, gin.H{"studentIds": []int{3, 1, 3}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"studentIds":[1,3]}`, string(env.Data))

	w, _ = s.do(t, http.MethodPost, rosterPath+"/2", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodDelete, rosterPath+"/4", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, env = s.do(t, http.MethodGet, rosterPath, admin, nil)
	assert.JSONEq(t, `{"studentIds":[1,2,3]}`, string(env.Data))

	w, _ = s.do(t, http.MethodGet, "/api/v1/admin/advisors/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodDelete, "/api/v1/admin/advisors/1", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.ErrActionForbidden, env.Error.Code)

	w, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/advisors/%d", id), admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/advisors/%d", id), admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoleChangeEndsSession(t *testing.T) {
	s := newTestServer(t, stubPredictor{})
	admin := s.login(t, "admin@uni.edu")
	grey := s.login(t, "grey@uni.edu")

	w, _ := s.do(t, http.MethodPut, "/api/v1/admin/advisors/2", admin, gin.H{
		"email": "grey@uni.edu", "advisor_name": "Dr. Grey", "role": "admin",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := s.do(t, http.MethodGet, "/api/v1/advisor/students", grey, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrSessionInvalidated, env.Error.Code)
}

func upload(t *testing.T, path, token, field, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "data.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAdminImport(t *testing.T) {
	s := newTestServer(t, stubPredictor{})
	admin := s.login(t, "admin@uni.edu")

	csv := "StudentID,Name,Gender,AttendanceRate,StudyHoursPerWeek,PreviousGrade,ExtracurricularActivities,ParentalSupport,FinalGrade\n" +
		"5,Ada,Female,95,12,88,0,Low,91\n" +
		"1,John,Male,85,15,78,1,High,74\n"
	w, env := s.serve(t, upload(t, "/api/v1/admin/import/students", admin, "file", csv))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"import":{"rows":2,"upserted":2}}`, string(env.Data))
	assert.Equal(t, 74.0, s.store.students[1].FinalGrade)

	w, env = s.serve(t, upload(t, "/api/v1/admin/import/risks", admin, "file", "StudentID,DropoutRisk,UnderperformRisk\n5,1,0\n"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.store.risks[5].DropoutRisk)

	bad := "StudentID,Name,Gender,AttendanceRate,StudyHoursPerWeek,PreviousGrade,ExtracurricularActivities,ParentalSupport,FinalGrade\n" +
		"6,Bo,Male,lots,12,88,0,Low,91\n"
	w, env = s.serve(t, upload(t, "/api/v1/admin/import/students", admin, "file", bad))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrMalformedCSV, env.Error.Code)
	assert.Equal(t, "2", env.Error.Fields["line"])
	assert.Equal(t, "AttendanceRate", env.Error.Fields["column"])
	assert.NotContains(t, s.store.students, 6)

	bad = "StudentID,Name,Gender,AttendanceRate,StudyHoursPerWeek,PreviousGrade,ExtracurricularActivities,ParentalSupport,FinalGrade\n" +
		"0,Ann,Male,85,15,78,1,Medium,85\n"
	w, env = s.serve(t, upload(t, "/api/v1/admin/import/students", admin, "file", bad))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrMalformedCSV, env.Error.Code)
	assert.Equal(t, "StudentID", env.Error.Fields["column"])
	assert.NotContains(t, s.store.students, 0)

	w, env = s.serve(t, upload(t, "/api/v1/admin/import/risks", admin, "file", "StudentID,DropoutRisk\n1,1\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrMalformedCSV, env.Error.Code)

	w, env = s.serve(t, upload(t, "/api/v1/admin/import/students", admin, "", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrFileRequired, env.Error.Code)
}

func TestAdminStudentRecords(t *testing.T) {
	s := newTestServer(t, stubPredictor{})
	admin := s.login(t, "admin@uni.edu")

	_, env := s.do(t, http.MethodGet, "/api/v1/admin/students?sort=riskClass", admin, nil)
	var data studentsData
	decode(t, env, &data)
	assert.Equal(t, []int{2, 1, 4, 3}, studentIDs(data.Students))

	rec := gin.H{
		"StudentID": 7, "Name": "Kai", "Gender": "Male", "AttendanceRate": 70,
		"ParentalSupport": "Medium", "FinalGrade": 64,
	}
	w, _ := s.do(t, http.MethodPut, "/api/v1/admin/students/7", admin, rec)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Kai", s.store.students[7].Name)

	w, _ = s.do(t, http.MethodPut, "/api/v1/admin/students/8", admin, rec)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPut, "/api/v1/admin/risks/7", admin, gin.H{"DropoutRisk": true, "UnderperformRisk": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.RiskFlags{StudentID: 7, DropoutRisk: true}, s.store.risks[7])

	w, env = s.do(t, http.MethodPut, "/api/v1/admin/risks/7", admin, gin.H{"DropoutRisk": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "UnderperformRisk")

	w, _ = s.do(t, http.MethodPut, "/api/v1/admin/risks/99", admin, gin.H{"DropoutRisk": true, "UnderperformRisk": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/admin/students/7", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, s.store.risks, 7)
	w, _ = s.do(t, http.MethodDelete, "/api/v1/admin/students/7", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebSocketRequiresToken(t *testing.T) {
	s := newTestServer(t, stubPredictor{})

	w, env := s.do(t, http.MethodGet, "/ws/v1/advisor/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrTokenRequired, env.Error.Code)

	token := s.login(t, "grey@uni.edu")
	_ = s.login(t, "grey@uni.edu")
	w, env = s.do(t, http.MethodGet, "/ws/v1/advisor/notifications?token="+token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrSessionInvalidated, env.Error.Code)
}
