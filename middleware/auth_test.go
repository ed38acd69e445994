package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignParseRoundTrip(t *testing.T) {
	a := NewAuth("test-secret")

	token, err := a.Sign("64f0c9e2a1b2c3d4e5f60718")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := a.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "64f0c9e2a1b2c3d4e5f60718", userID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewAuth("secret-a").Sign("user-1")
	require.NoError(t, err)

	_, err = NewAuth("secret-b").Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	a := NewAuth("test-secret")

	claims := &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = a.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	a := NewAuth("test-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.Parse(raw)
	assert.Error(t, err)
}

func TestMiddlewareSetsUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := NewAuth("test-secret")

	token, err := a.Sign("64f0c9e2a1b2c3d4e5f60718")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", a.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString("userId")})
	})

	tests := []struct {
		name   string
		header string
		value  string
		query  string
		status int
	}{
		{name: "bearer header", header: "Authorization", value: "Bearer " + token, status: http.StatusOK},
		{name: "bare header", header: "Authorization", value: token, status: http.StatusOK},
		{name: "token header", header: "token", value: token, status: http.StatusOK},
		{name: "query param", query: token, status: http.StatusOK},
		{name: "missing token", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Authorization", value: "Bearer not-a-jwt", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "/me"
			if tt.query != "" {
				url += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), "64f0c9e2a1b2c3d4e5f60718")
			}
		})
	}
}

func TestMiddlewareSkipsPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := NewAuth("test-secret")

	router := gin.New()
	router.OPTIONS("/me", a.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
