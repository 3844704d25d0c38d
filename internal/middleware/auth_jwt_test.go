package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cartsync/internal/config"
	"cartsync/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	Owner string `json:"owner"`
}

func mustMakeJWT(t *testing.T, secret string, sub interface{}, signingMethod jwt.SigningMethod) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": sub,
		"iat": 1,
		"exp": 9999999999,
	}

	token := jwt.NewWithClaims(signingMethod, claims)

	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func newProtected(cfg config.Config) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		owner, _ := middleware.CartOwner(c)
		return c.JSON(http.StatusOK, mwOKResponse{Owner: owner})
	}, middleware.AuthJWT(cfg))
	return e
}

func runRequest(t *testing.T, e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func assertUnauthorized(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var r mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	assert.Equal(t, "unauthorized", r.Error)
}

// Authorizationなし => 401
func TestAuthJWT_Unauthorized_NoHeader(t *testing.T) {
	e := newProtected(config.Config{JWTSecret: "test-secret"})
	assertUnauthorized(t, runRequest(t, e, ""))
}

// Bearer形式じゃない => 401
func TestAuthJWT_Unauthorized_BadScheme(t *testing.T) {
	e := newProtected(config.Config{JWTSecret: "test-secret"})
	assertUnauthorized(t, runRequest(t, e, "Token abc.def.ghi"))
}

// 署名違い => 401
func TestAuthJWT_Unauthorized_BadSignature(t *testing.T) {
	e := newProtected(config.Config{JWTSecret: "correct-secret"})
	raw := mustMakeJWT(t, "wrong-secret", 1, jwt.SigningMethodHS256)
	assertUnauthorized(t, runRequest(t, e, "Bearer "+raw))
}

// アルゴリズム違い（HS512）=> 401
func TestAuthJWT_Unauthorized_WrongAlg(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}
	e := newProtected(cfg)
	raw := mustMakeJWT(t, cfg.JWTSecret, 1, jwt.SigningMethodHS512)
	assertUnauthorized(t, runRequest(t, e, "Bearer "+raw))
}

// subなし・不正 => 401
func TestAuthJWT_Unauthorized_BadSub(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}
	e := newProtected(cfg)

	for _, sub := range []interface{}{nil, "", 0, 1.5, true} {
		raw := mustMakeJWT(t, cfg.JWTSecret, sub, jwt.SigningMethodHS256)
		assertUnauthorized(t, runRequest(t, e, "Bearer "+raw))
	}
}

// 正常：数値のsub
func TestAuthJWT_Success_NumericSub(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}
	e := newProtected(cfg)

	raw := mustMakeJWT(t, cfg.JWTSecret, 123, jwt.SigningMethodHS256)
	rec := runRequest(t, e, "Bearer "+raw)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	assert.Equal(t, "123", body.Owner)
}

// 正常：文字列のsub（匿名セッションID）
func TestAuthJWT_Success_StringSub(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}
	e := newProtected(cfg)

	raw := mustMakeJWT(t, cfg.JWTSecret, "guest-6f1c", jwt.SigningMethodHS256)
	rec := runRequest(t, e, "bearer "+raw)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	assert.Equal(t, "guest-6f1c", body.Owner)
}
