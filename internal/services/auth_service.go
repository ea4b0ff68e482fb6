// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mintcart/mintcart-backend/internal/config"
	"github.com/mintcart/mintcart-backend/internal/utils"
)

var ErrInvalidSignature = errors.New("signature does not match address")

// AuthService signs wallets in with an EIP-191 personal_sign challenge.
type AuthService struct {
	cfg *config.Config
}

type LoginRequest struct {
	Address   string `json:"address" validate:"required,eth_address"`
	ChainID   int64  `json:"chain_id" validate:"required,min=1"`
	Signature string `json:"signature" validate:"required"`
}

type AuthResponse struct {
	Address        string `json:"address"`
	DisplayAddress string `json:"display_address"`
	ChainID        int64  `json:"chain_id"`
	AccessToken    string `json:"access_token"`
	TokenType      string `json:"token_type"`
	ExpiresIn      int    `json:"expires_in"` // in seconds
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// NewChallenge returns a fresh message for the wallet to sign.
func (s *AuthService) NewChallenge() (string, error) {
	nonce, err := utils.GenerateNonce()
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return fmt.Sprintf("Sign in to MintCart\n\nNonce: %s", nonce), nil
}

// Login verifies that req.Signature is the address's signature over message
// and issues a session token.
func (s *AuthService) Login(message string, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if message == "" {
		return nil, errors.New("no sign-in challenge issued")
	}

	if err := VerifyPersonalSignature(req.Address, message, req.Signature); err != nil {
		return nil, err
	}

	address := utils.NormalizeAddress(req.Address)
	token, err := utils.GenerateJWT(address, req.ChainID, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		Address:        address,
		DisplayAddress: utils.DisplayAddress(address),
		ChainID:        req.ChainID,
		AccessToken:    token,
		TokenType:      "Bearer",
		ExpiresIn:      s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

// VerifyPersonalSignature checks a 65-byte [R || S || V] signature produced
// by personal_sign. V may be 0/1 or 27/28.
func VerifyPersonalSignature(address, message, signature string) error {
	sig, err := hexutil.Decode(strings.TrimSpace(signature))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, crypto.SignatureLength, len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(address) {
		return ErrInvalidSignature
	}
	return nil
}
