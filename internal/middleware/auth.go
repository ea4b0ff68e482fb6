// internal/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/mintcart/mintcart-backend/internal/i18n"
	"github.com/mintcart/mintcart-backend/internal/utils"
)

// Session keys written at wallet login.
const (
	SessionWalletAddress = "wallet_address"
	SessionChainID       = "chain_id"
	SessionNonceMessage  = "nonce_message"
)

// WalletRequired accepts a Bearer token or a logged-in cookie session and
// answers WALLET_NOT_CONNECTED when neither is present.
func WalletRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if address, chainID, ok := walletFromSession(c); ok {
				setWallet(c, address, chainID)
				c.Next()
				return
			}
			utils.WalletNotConnectedResponse(c)
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthTokenExpired))
			c.Abort()
			return
		}

		setWallet(c, claims.Address, claims.ChainID)
		c.Next()
	}
}

// APIKeyRequired guards the record API when a key is configured.
func APIKeyRequired(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader("X-API-Key")), []byte(apiKey)) != 1 {
			utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_API_KEY",
				i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthInvalidToken), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func setWallet(c *gin.Context, address string, chainID int64) {
	c.Set("wallet_address", address)
	c.Set("chain_id", chainID)
}

func walletFromSession(c *gin.Context) (string, int64, bool) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return "", 0, false
	}
	session := sessions.Default(c)
	address, _ := session.Get(SessionWalletAddress).(string)
	chainID, _ := session.Get(SessionChainID).(int64)
	if address == "" || chainID == 0 {
		return "", 0, false
	}
	return address, chainID, true
}
