package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/futig/mcq-reasoner/internal/config"
)

func testClientConfig(url string) config.HTTPClientConfig {
	return config.HTTPClientConfig{
		RequestTimeout:        5 * time.Second,
		ConnTimeout:           5 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
		MaxIdleConnsPerHost:   4,
		Token:                 "secret",
		Url:                   url,
	}
}

func TestNewBaseConnectorSendsCredentials(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewBaseConnector("llm", testClientConfig(srv.URL), nil, zaptest.NewLogger(t))
	if err := c.DoRequest(context.Background(), http.MethodGet, "/ping", nil, nil); err != nil {
		t.Fatalf("DoRequest() error = %v", err)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q, want Bearer secret", auth)
	}
}

func TestNewBaseConnectorTLSVerification(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		insecure bool
		wantErr  bool
	}{
		{"self-signed rejected by default", false, true},
		{"self-signed accepted when verification is off", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testClientConfig(srv.URL)
			cfg.InsecureSkipVerify = tt.insecure
			cfg.LogPayloads = true

			err := NewBaseConnector("embedding", cfg, nil, zaptest.NewLogger(t)).
				DoRequest(context.Background(), http.MethodGet, "/", nil, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("DoRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
