package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	ts := &tokenSource{
		creds:  &credentials{ClientEmail: "svc@test", PrivateKey: "unused"},
		client: http.DefaultClient,
		token:  "test-token",
		expiry: time.Now().Add(time.Hour),
	}
	return &Client{
		spreadsheetID: "sheet-1",
		baseURL:       baseURL,
		client:        http.DefaultClient,
		tokens:        ts,
	}
}

func TestClientValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/sheet-1/values/Students", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Students!A1:B3","values":[["student name","class"],["Dana Levi","9a"],["Omri Peled","9b"]]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	grid, err := client.Values(context.Background(), "Students")
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Equal(t, []string{"Dana Levi", "9a"}, grid[1])
}

func TestClientValuesMissingTab(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Unable to parse range: NoSuchTab"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Values(context.Background(), "NoSuchTab")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 400")
}

func TestClientValuesEmptyTab(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"range":"Empty!A1:Z1000"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	grid, err := client.Values(context.Background(), "Empty")
	require.NoError(t, err)
	assert.Empty(t, grid)
}

func TestClientValuesContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Values(ctx, "Students")
	require.Error(t, err)
}
