package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limpopochefs/academy-api/internal/middleware"
	"github.com/limpopochefs/academy-api/internal/models"
)

func newTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "staff-1", UserType: models.UserTypeStaff, Email: "chef@academy.test"}
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "stu-1", UserType: models.UserTypeStudent, Email: "student@academy.test"}
}

func TestSessionHandlerStartRequiresAuth(t *testing.T) {
	handler := NewSessionHandler(nil)
	c, w := newTestContext(t, http.MethodPost, "/student/assignments/asg-1/start", nil)
	c.Params = gin.Params{{Key: "id", Value: "asg-1"}}

	handler.Start(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHandlerSubmitRejectsInvalidBody(t *testing.T) {
	handler := NewSessionHandler(nil)
	c, w := newTestContext(t, http.MethodPost, "/student/assignments/asg-1/submit", []byte(`not json`))
	c.Params = gin.Params{{Key: "id", Value: "asg-1"}}
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerTerminateRequiresAuth(t *testing.T) {
	handler := NewSessionHandler(nil)
	c, w := newTestContext(t, http.MethodPost, "/student/assignments/asg-1/terminate", nil)
	c.Params = gin.Params{{Key: "id", Value: "asg-1"}}

	handler.Terminate(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHandlerTerminateRejectsInvalidBody(t *testing.T) {
	handler := NewSessionHandler(nil)
	c, w := newTestContext(t, http.MethodPost, "/student/assignments/asg-1/terminate", []byte(`not json`))
	c.Params = gin.Params{{Key: "id", Value: "asg-1"}}
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Terminate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerSaveAnswerRejectsInvalidBody(t *testing.T) {
	handler := NewSessionHandler(nil)
	c, w := newTestContext(t, http.MethodPut, "/student/assignments/asg-1/answers", []byte(`{`))
	c.Params = gin.Params{{Key: "id", Value: "asg-1"}}
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.SaveAnswer(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkingHandlerMarkRequiresAuth(t *testing.T) {
	handler := NewMarkingHandler(nil, nil)
	c, w := newTestContext(t, http.MethodPost, "/admin/attempts/res-1/mark", []byte(`{"scores":[]}`))
	c.Params = gin.Params{{Key: "id", Value: "res-1"}}

	handler.Mark(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMarkingHandlerMarkRejectsInvalidBody(t *testing.T) {
	handler := NewMarkingHandler(nil, nil)
	c, w := newTestContext(t, http.MethodPost, "/admin/attempts/res-1/mark", []byte(`not json`))
	c.Params = gin.Params{{Key: "id", Value: "res-1"}}
	c.Set(middleware.ContextUserKey, staffClaims())

	handler.Mark(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkingHandlerFeedbackRequiresComment(t *testing.T) {
	handler := NewMarkingHandler(nil, nil)
	c, w := newTestContext(t, http.MethodPost, "/admin/attempts/res-1/feedback", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "res-1"}}
	c.Set(middleware.ContextUserKey, staffClaims())

	handler.AddFeedback(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResultHandlerLedgerRequiresKey(t *testing.T) {
	handler := NewResultHandler(nil)
	c, w := newTestContext(t, http.MethodGet, "/admin/results?campus=cam-1", nil)

	handler.Ledger(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignmentHandlerCreateRequiresAuth(t *testing.T) {
	handler := NewAssignmentHandler(nil)
	c, w := newTestContext(t, http.MethodPost, "/admin/assignments", []byte(`{}`))

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLoginRejectsInvalidBody(t *testing.T) {
	handler := NewAuthHandler(nil)
	c, w := newTestContext(t, http.MethodPost, "/auth/staff/login", []byte(`not json`))

	handler.LoginStaff(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerMeReturnsClaims(t *testing.T) {
	handler := NewAuthHandler(nil)
	c, w := newTestContext(t, http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, staffClaims())

	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chef@academy.test")
}

func TestNotificationHandlerListRequiresAuth(t *testing.T) {
	handler := NewNotificationHandler(nil)
	c, w := newTestContext(t, http.MethodGet, "/student/notifications", nil)

	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
