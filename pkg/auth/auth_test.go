package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frameworks/pkg/ctxkeys"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestValidateServiceToken(t *testing.T) {
	assert.ErrorIs(t, ValidateServiceToken("", "expected"), ErrMissingServiceToken)
	assert.ErrorIs(t, ValidateServiceToken("bad", "expected"), ErrInvalidServiceToken)
	assert.ErrorIs(t, ValidateServiceToken("anything", ""), ErrInvalidServiceToken)
	assert.NoError(t, ValidateServiceToken("expected", "expected"))
}

func TestJWTGenerateValidate(t *testing.T) {
	secret := []byte("s3cr3t")
	token, err := GenerateJWT("user1", "tenant1", "member", []uint64{1307}, time.Minute, secret)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user1", claims.UserID)
	assert.Equal(t, "tenant1", claims.TenantID)
	assert.True(t, claims.AllowsProject(1307))
	assert.False(t, claims.AllowsProject(42))
}

func TestJWTValidationEdgeCases(t *testing.T) {
	secret := []byte("s3cr3t")
	tests := []struct {
		name    string
		token   func() string
		wantErr error
	}{
		{
			name: "expired",
			token: func() string {
				tok, _ := GenerateJWT("u", "t", "member", nil, -time.Minute, secret)
				return tok
			},
			wantErr: ErrExpiredJWT,
		},
		{
			name: "wrong secret",
			token: func() string {
				tok, _ := GenerateJWT("u", "t", "member", nil, time.Minute, []byte("other"))
				return tok
			},
			wantErr: ErrInvalidJWT,
		},
		{
			name: "none algorithm",
			token: func() string {
				tok := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u"})
				s, _ := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
				return s
			},
			wantErr: ErrInvalidJWT,
		},
		{
			name:    "garbage",
			token:   func() string { return "not-a-token" },
			wantErr: ErrInvalidJWT,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateJWT(tt.token(), secret)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClaimsAllowsProject_EmptyScope(t *testing.T) {
	c := &Claims{}
	assert.True(t, c.AllowsProject(99))
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestServiceAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(ServiceAuthMiddleware("token123"))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Token token123").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer wrong").Code)
	assert.Equal(t, http.StatusOK, serve(r, "Bearer token123").Code)
}

func TestJWTAuthMiddleware(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateJWT("u1", "t1", "member", []uint64{1307}, time.Minute, secret)
	require.NoError(t, err)

	r := gin.New()
	r.Use(JWTAuthMiddleware(secret, "svc-token"))
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"auth_type": c.GetString(string(ctxkeys.KeyAuthType)),
			"p1307":     CanAccessProject(c, 1307),
			"p42":       CanAccessProject(c, 42),
		})
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer nope").Code)

	w := serve(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"auth_type":"jwt","p1307":true,"p42":false}`, w.Body.String())

	w = serve(r, "Bearer svc-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"auth_type":"service","p1307":true,"p42":true}`, w.Body.String())
}
