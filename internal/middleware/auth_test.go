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

func TestGenerateToken(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateToken("test-user-id", "test@example.com", 1*time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestJWTAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetJWTSecret("test-secret")

	expired, err := GenerateToken("test-user-id", "test@example.com", -time.Minute)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{
			name:           "Missing authorization header",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid token format",
			header:         "InvalidToken",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired token",
			header:         "Bearer " + expired,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Unsigned token",
			header:         "Bearer " + noneToken,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			c.Request = req

			JWTAuth()(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestJWTAuthWithValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetJWTSecret("test-secret")

	userID := "test-user-id"
	token, err := GenerateToken(userID, "test@example.com", 1*time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.Use(JWTAuth())
	router.GET("/test", func(c *gin.Context) {
		extractedUserID, exists := GetUserID(c)
		assert.True(t, exists)
		assert.Equal(t, userID, extractedUserID)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthRejectsForeignSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetJWTSecret("other-secret")
	token, err := GenerateToken("u", "u@example.com", time.Hour)
	require.NoError(t, err)
	SetJWTSecret("test-secret")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/test", nil)
	c.Request.Header.Set("Authorization", "Bearer "+token)

	JWTAuth()(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
