package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_DownloadsAndCaches(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("price,data"))
	}))
	defer server.Close()

	client := NewClient(t.TempDir(), time.Second, zerolog.Nop())

	path, err := client.fetch(context.Background(), server.URL, "pp-2022.csv")
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "price,data", string(content))

	// A second fetch serves the cached file without touching the source.
	again, err := client.fetch(context.Background(), server.URL, "pp-2022.csv")
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, 1, hits)
}

func TestFetch_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(t.TempDir(), time.Second, zerolog.Nop())

	_, err := client.fetch(context.Background(), server.URL, "pp-1990.csv")
	assert.Error(t, err)

	// A failed download leaves nothing behind to be mistaken for a cache hit.
	entries, readErr := os.ReadDir(client.dataDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}
