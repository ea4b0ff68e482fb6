// internal/handlers/auth.go
package handlers

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mintcart/mintcart-backend/internal/i18n"
	"github.com/mintcart/mintcart-backend/internal/middleware"
	"github.com/mintcart/mintcart-backend/internal/services"
	"github.com/mintcart/mintcart-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// GET /auth/nonce
func (h *AuthHandler) Nonce(c *gin.Context) {
	message, err := h.authService.NewChallenge()
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionNonceMessage, message)
	if err := session.Save(); err != nil {
		logrus.WithError(err).Error("Failed to save session")
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"message": message})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	session := sessions.Default(c)
	message, _ := session.Get(middleware.SessionNonceMessage).(string)
	if message == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyAuthNonceMissing), nil)
		return
	}

	authResponse, err := h.authService.Login(message, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidSignature))
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	// A challenge is good for one login.
	session.Delete(middleware.SessionNonceMessage)
	session.Set(middleware.SessionWalletAddress, authResponse.Address)
	session.Set(middleware.SessionChainID, authResponse.ChainID)
	if err := session.Save(); err != nil {
		logrus.WithError(err).Error("Failed to save session")
	}

	utils.SuccessResponse(c, gin.H{
		"message":         i18n.T(lang, i18n.KeyAuthLoginSuccess),
		"address":         authResponse.Address,
		"display_address": authResponse.DisplayAddress,
		"chain_id":        authResponse.ChainID,
		"token":           authResponse.AccessToken,
		"token_type":      authResponse.TokenType,
		"expires_in":      authResponse.ExpiresIn,
	})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	address, chainID, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.WalletNotConnectedResponse(c)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"address":         address,
		"display_address": utils.DisplayAddress(address),
		"chain_id":        chainID,
	})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logrus.WithError(err).Error("Failed to clear session")
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthLogoutSuccess),
	})
}
