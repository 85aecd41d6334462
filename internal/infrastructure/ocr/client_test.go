package ocr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/recognize", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "scan.png", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"extractedText":"invoice total 42"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	text, err := client.ExtractText(context.Background(), "scan.png", []byte("fake image bytes"))
	require.NoError(t, err)
	assert.Equal(t, "invoice total 42", text)
}

func TestExtractTextServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error":"unreadable image"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.ExtractText(context.Background(), "scan.png", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreadable image")
}

func TestExtractTextBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.ExtractText(context.Background(), "scan.png", []byte("x"))
	require.Error(t, err)
}

func TestExtractTextUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := client.ExtractText(context.Background(), "scan.png", []byte("x"))
	require.Error(t, err)
}
