package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/spotunisia/internal/shared"

	tu "github.com/desertthunder/spotunisia/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Nil Client", func(t *testing.T) {
			api := NewAPIService(nil)
			if api.httpClient == nil || api.httpClient.Timeout == 0 {
				t.Error("expected default client with timeout")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") == "" {
					t.Error("expected a user agent")
				}
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"audioStreams":[{"bitrate":128}]}`)
			}))
			defer server.Close()

			resp, err := NewAPIService(server.Client()).Get(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !resp.OK() || !resp.IsJSON {
				t.Errorf("expected OK JSON response, got %+v", resp)
			}
			if got := resp.JSON("audioStreams.0.bitrate").Int(); got != 128 {
				t.Errorf("expected bitrate 128, got %d", got)
			}
		})

		t.Run("HTML Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "<html><body>hi</body></html>")
			}))
			defer server.Close()

			resp, err := NewAPIService(server.Client()).Get(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.IsJSON {
				t.Error("HTML should not be detected as JSON")
			}
			if resp.JSON("anything").Exists() {
				t.Error("JSON lookup on HTML should be empty")
			}
		})

		t.Run("Error Status Is Returned", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			resp, err := NewAPIService(server.Client()).Get(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.OK() || resp.StatusCode != http.StatusBadGateway {
				t.Errorf("expected 502, got %d", resp.StatusCode)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("network down"))}
			if _, err := NewAPIService(client).Get(context.Background(), "http://example.invalid"); err == nil {
				t.Fatal("expected error")
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     make(http.Header),
			}, nil)}
			if _, err := NewAPIService(client).Get(context.Background(), "http://example.invalid"); err == nil {
				t.Fatal("expected read error")
			}
		})

		t.Run("Invalid URL", func(t *testing.T) {
			if _, err := NewAPIService(nil).Get(context.Background(), "://bad"); err == nil {
				t.Fatal("expected request creation error")
			}
		})
	})
	t.Run("Fetch", func(t *testing.T) {
		t.Run("Streams Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "ID3audio-bytes")
			}))
			defer server.Close()

			var buf strings.Builder
			n, err := NewAPIService(server.Client()).Fetch(context.Background(), server.URL, &buf)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != 14 || buf.String() != "ID3audio-bytes" {
				t.Errorf("expected 14 bytes of audio, got %d %q", n, buf.String())
			}
		})

		t.Run("Error Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			}))
			defer server.Close()

			var buf strings.Builder
			_, err := NewAPIService(server.Client()).Fetch(context.Background(), server.URL, &buf)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if StatusCode(err) != http.StatusForbidden {
				t.Errorf("expected 403, got %d", StatusCode(err))
			}
			if buf.Len() != 0 {
				t.Error("expected nothing written")
			}
		})
	})
}
