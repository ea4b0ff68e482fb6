package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintcart/mintcart-backend/internal/i18n"
	"github.com/mintcart/mintcart-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-test-secret")
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func walletEngine(guard gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/me", guard, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"address":  c.GetString("wallet_address"),
			"chain_id": c.GetInt64("chain_id"),
		})
	})
	return r
}

func TestWalletRequired(t *testing.T) {
	r := walletEngine(WalletRequired())

	t.Run("no credentials", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "WALLET_NOT_CONNECTED", errorCode(t, w))
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := utils.GenerateJWT("0xABC0000000000000000000000000000000000001", 137, 1)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Address string `json:"address"`
			ChainID int64  `json:"chain_id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "0xABC0000000000000000000000000000000000001", body.Address)
		assert.Equal(t, int64(137), body.ChainID)
	})
}

func TestAPIKeyRequired(t *testing.T) {
	r := gin.New()
	r.POST("/records", APIKeyRequired("secret"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/records", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_API_KEY", errorCode(t, w))

	req := httptest.NewRequest(http.MethodPost, "/records", nil)
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	open := gin.New()
	open.POST("/records", APIKeyRequired(""), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	w = httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/records", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestI18nMiddleware(t *testing.T) {
	require.NoError(t, i18n.Initialize("../i18n/locales", "en"))

	r := gin.New()
	r.Use(I18nMiddleware("en"))
	r.GET("/lang", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("lang"))
	})

	cases := []struct {
		name   string
		query  string
		header string
		want   string
	}{
		{"default", "", "", "en"},
		{"traditional chinese", "", "zh-TW,zh;q=0.9,en;q=0.8", "zh_TW"},
		{"region stripped", "", "en-GB", "en"},
		{"unsupported falls through", "", "fr-FR,zh-Hant;q=0.5", "zh_TW"},
		{"unsupported only", "", "de", "en"},
		{"query wins", "lang=zh_TW", "en", "zh_TW"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/lang?"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Accept-Language", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Body.String())
		})
	}
}
