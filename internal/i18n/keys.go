// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyError         = "error"
	KeyInternalError = "error.internal"
	KeyRateLimited   = "error.rate_limited"

	// Wallet session
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthWalletNotConnected = "auth.wallet_not_connected"
	KeyAuthNonceMissing       = "auth.nonce_missing"
	KeyAuthInvalidSignature   = "auth.invalid_signature"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"

	// Product records
	KeyProductCreated  = "product.created"
	KeyProductNotFound = "product.not_found"
	KeyProductExists   = "product.exists"

	// Create-product workflow failures
	KeyCreateInvalidDraft        = "product.create.invalid_draft"
	KeyCreateInvalidAmount       = "product.create.invalid_amount"
	KeyCreateStorageUnavailable  = "product.create.storage_unavailable"
	KeyCreateTxRejected          = "product.create.transaction_rejected"
	KeyCreateSubmissionFailed    = "product.create.submission_failed"
	KeyCreateTxReverted          = "product.create.transaction_reverted"
	KeyCreateConfirmationTimeout = "product.create.confirmation_timeout"
	KeyCreatePersistenceFailed   = "product.create.persistence_failed"
	KeyCreateDuplicate           = "product.create.duplicate"
	KeyCreateUnsupportedChain    = "product.create.unsupported_chain"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
