package i18n

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateWithFallback(t *testing.T) {
	tr := New("en")
	require.NoError(t, tr.LoadTranslations("locales"))

	assert.Equal(t, "Product not found", tr.T("en", KeyProductNotFound))
	assert.Equal(t, "找不到商品", tr.T("zh_TW", KeyProductNotFound))
	// unknown language falls back to the default
	assert.Equal(t, "Product not found", tr.T("fr", KeyProductNotFound))
	// unknown key is returned as-is
	assert.Equal(t, "no.such.key", tr.T("en", "no.such.key"))
	assert.Equal(t, "Please check the product details: slug", tr.T("en", KeyCreateInvalidDraft, "slug"))
}

func TestLocalesDefineEveryKey(t *testing.T) {
	keys := []string{
		KeyAuthWalletNotConnected, KeyAuthInvalidSignature, KeyAuthNonceMissing,
		KeyProductCreated, KeyProductExists,
		KeyCreateInvalidDraft, KeyCreateInvalidAmount, KeyCreateStorageUnavailable,
		KeyCreateTxRejected, KeyCreateSubmissionFailed, KeyCreateTxReverted,
		KeyCreateConfirmationTimeout, KeyCreatePersistenceFailed, KeyCreateDuplicate,
		KeyCreateUnsupportedChain, KeyRateLimited,
	}

	files, err := filepath.Glob(filepath.Join("locales", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		data, err := os.ReadFile(file)
		require.NoError(t, err)

		var translations map[string]string
		require.NoError(t, json.Unmarshal(data, &translations))

		for _, key := range keys {
			assert.Contains(t, translations, key, "%s misses %s", file, key)
		}
	}
}

func TestLoadTranslationsMissingDir(t *testing.T) {
	assert.Error(t, New("en").LoadTranslations(t.TempDir()))
}
