package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limpopochefs/academy-api/internal/models"
)

func newContext(t *testing.T, method string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, "/", nil)
	require.NoError(t, err)
	c.Request = req
	return c, w
}

func TestJWTMissingHeader(t *testing.T) {
	c, w := newContext(t, http.MethodGet)

	JWT(nil)(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

func TestJWTMalformedHeader(t *testing.T) {
	c, w := newContext(t, http.MethodGet)
	c.Request.Header.Set("Authorization", "Token abc")

	JWT(nil)(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

func TestRequireUserTypeAllows(t *testing.T) {
	c, w := newContext(t, http.MethodGet)
	c.Set(ContextUserKey, &models.JWTClaims{UserID: "stu-1", UserType: models.UserTypeStudent})

	RequireUserType(models.UserTypeStudent)(c)
	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireUserTypeBlocksWrongType(t *testing.T) {
	c, w := newContext(t, http.MethodGet)
	c.Set(ContextUserKey, &models.JWTClaims{UserID: "stu-1", UserType: models.UserTypeStudent})

	RequireUserType(models.UserTypeStaff)(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, c.IsAborted())
}

func TestRequireUserTypeMissingClaims(t *testing.T) {
	c, w := newContext(t, http.MethodGet)

	RequireUserType(models.UserTypeStaff)(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

func TestCurrentUserWrongType(t *testing.T) {
	c, _ := newContext(t, http.MethodGet)
	c.Set(ContextUserKey, "not-claims")

	assert.Nil(t, CurrentUser(c))
}
