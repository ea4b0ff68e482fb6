package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordClientPostsProduct(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/1/0xABC/products", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewRecordClient(server.URL+"/", "secret", time.Second)
	err := client.CreateProduct(context.Background(), 1, "0xABC", ProductRecordPayload{
		Contract: "0xC0FFEE",
		Name:     "Mug",
		Slug:     "mug",
		TokenURI: "ipfs://Qm123",
		Price:    "0.05",
		Supply:   10,
	})
	require.NoError(t, err)

	assert.Equal(t, "0xC0FFEE", body["contract"])
	assert.Equal(t, "ipfs://Qm123", body["tokenUri"])
	assert.Equal(t, "0.05", body["price"])
	assert.Equal(t, float64(10), body["supply"])
	assert.Equal(t, float64(0), body["sold"])
}

func TestRecordClientErrors(t *testing.T) {
	status := http.StatusInternalServerError
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewRecordClient(server.URL, "", time.Second)

	err := client.CreateProduct(context.Background(), 1, "0xABC", ProductRecordPayload{})
	var apiErr *RecordAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Body)
	assert.NotErrorIs(t, err, ErrRecordExists)

	status = http.StatusConflict
	err = client.CreateProduct(context.Background(), 1, "0xABC", ProductRecordPayload{})
	assert.ErrorIs(t, err, ErrRecordExists)
}

func TestRecordClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := NewRecordClient(url, "", time.Second).CreateProduct(context.Background(), 1, "0xABC", ProductRecordPayload{})
	assert.ErrorContains(t, err, "record request failed")
}
