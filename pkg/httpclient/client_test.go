package httpclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Behyna/wa-inbox/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer replies with the request's method, user agent and authorization header.
func echoServer() *httptest.Server {
	handler := http.NewServeMux()
	handler.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strings.Join([]string{
			r.Method, r.Header.Get("User-Agent"), r.Header.Get("Authorization"), string(body),
		}, "|")))
	})
	return httptest.NewServer(handler)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestHttpClient_Get(t *testing.T) {
	server := echoServer()
	defer server.Close()

	client := httpclient.NewHTTPClient(5*time.Second, httpclient.WithHeader("User-Agent", "wa-inbox"))

	resp, err := client.Get(context.Background(), server.URL+"/echo", map[string]string{"Authorization": "Bearer t"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GET|wa-inbox|Bearer t|", readBody(t, resp))
}

func TestHttpClient_Post(t *testing.T) {
	server := echoServer()
	defer server.Close()

	client := httpclient.NewHTTPClient(5 * time.Second)

	resp, err := client.Post(context.Background(), server.URL+"/echo", strings.NewReader(`{"a":1}`), nil)
	require.NoError(t, err)
	assert.Equal(t, `POST|Go-http-client/1.1||{"a":1}`, readBody(t, resp))
}

func TestHttpClient_CallHeadersOverrideDefaults(t *testing.T) {
	server := echoServer()
	defer server.Close()

	client := httpclient.NewHTTPClient(5*time.Second, httpclient.WithHeader("User-Agent", "default"))

	resp, err := client.Post(context.Background(), server.URL+"/echo", nil, map[string]string{"User-Agent": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "POST|custom||", readBody(t, resp))
}

func TestHttpClient_Do(t *testing.T) {
	server := echoServer()
	defer server.Close()

	client := httpclient.NewHTTPClient(5*time.Second, httpclient.WithHeader("User-Agent", "wa-inbox"))

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/echo", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, "GET|wa-inbox||", readBody(t, resp))
}

func TestHttpClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.NewHTTPClient(20 * time.Millisecond)

	_, err := client.Get(context.Background(), server.URL, nil)
	assert.Error(t, err)
}
