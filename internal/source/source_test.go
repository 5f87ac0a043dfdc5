package source

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetboard/assetboard/internal/config"
)

const csvBody = "No,Asset ID,Computer Name\n1,A001,PC-01\n"

func httpCfg(url string) config.SourceConfig {
	return config.SourceConfig{Kind: config.KindHTTP, URL: url, Timeout: 5 * time.Second}
}

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	f, err := New(httpCfg(srv.URL + "/export?format=csv&token=secret"))
	require.NoError(t, err)

	p, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csvBody, p.Body)
	assert.Equal(t, srv.URL+"/export", p.Origin)
	assert.NotContains(t, p.Origin, "secret")
	assert.False(t, p.FetchedAt.IsZero())
	assert.Nil(t, p.Cert)
}

func TestHTTPSource_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f, err := New(httpCfg(srv.URL))
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPSource_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	f, err := New(httpCfg(srv.URL))
	require.NoError(t, err)
	hs := f.(*httpSource)

	hs.maxBody = int64(len(csvBody))
	p, err := f.Fetch(context.Background())
	require.NoError(t, err, "a body exactly at the limit is accepted")
	assert.Equal(t, csvBody, p.Body)

	hs.maxBody = int64(len(csvBody)) - 1
	p, err = f.Fetch(context.Background())
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "body exceeds")
}

func TestHTTPSource_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f, err := New(httpCfg(srv.URL))
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.EqualValues(t, 1, calls.Load())
}

func TestHTTPSource_RetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	cfg := httpCfg(srv.URL)
	cfg.Retries = 2
	f, err := New(cfg)
	require.NoError(t, err)
	f.(*httpSource).client.RetryWaitMin = time.Millisecond
	f.(*httpSource).client.RetryWaitMax = 5 * time.Millisecond

	p, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csvBody, p.Body)
	assert.EqualValues(t, 2, calls.Load())
}

func TestHTTPSource_NotConfigured(t *testing.T) {
	f, err := New(config.SourceConfig{Kind: config.KindHTTP, URLEnv: "ASSETBOARD_TEST_UNSET_URL"})
	require.NoError(t, err)

	_, err = f.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHTTPSource_URLFromEnv(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(csvBody))
	}))
	defer srv.Close()
	t.Setenv("ASSETBOARD_TEST_URL", srv.URL)

	f, err := New(config.SourceConfig{Kind: config.KindHTTP, URLEnv: "ASSETBOARD_TEST_URL", Timeout: time.Second})
	require.NoError(t, err)

	p, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csvBody, p.Body)
}

func TestHTTPSource_RecordsCertificate(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	cfg := httpCfg(srv.URL)
	cfg.TLS.InsecureSkipVerify = true
	f, err := New(cfg)
	require.NoError(t, err)

	p, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, p.Cert)
	assert.Equal(t, CertValid, p.Cert.Status)
	assert.Positive(t, p.Cert.DaysLeft)
}

func TestHTTPSource_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	f, err := New(httpCfg(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx)
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	p := filepath.Join(t.TempDir(), "inventory.csv")
	require.NoError(t, os.WriteFile(p, []byte(csvBody), 0o600))

	f, err := New(config.SourceConfig{Kind: config.KindFile, Path: p})
	require.NoError(t, err)

	got, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csvBody, got.Body)
	assert.Equal(t, p, got.Origin)
	assert.Nil(t, got.Cert)
}

func TestFileSource_Errors(t *testing.T) {
	f, err := New(config.SourceConfig{Kind: config.KindFile})
	require.NoError(t, err)
	_, err = f.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	f, err = New(config.SourceConfig{Kind: config.KindFile, Path: filepath.Join(t.TempDir(), "missing.csv")})
	require.NoError(t, err)
	_, err = f.Fetch(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(config.SourceConfig{Kind: "ftp"})
	assert.Error(t, err)
}

func TestCertFromState(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	leaf := func(notAfter time.Time) *tls.ConnectionState {
		return &tls.ConnectionState{PeerCertificates: []*x509.Certificate{{
			Subject:  pkix.Name{CommonName: "docs.example.com"},
			Issuer:   pkix.Name{CommonName: "Example CA"},
			NotAfter: notAfter,
		}}}
	}

	tests := []struct {
		name     string
		notAfter time.Time
		days     int
		status   string
	}{
		{"valid", now.Add(90 * 24 * time.Hour), 90, CertValid},
		{"expiring at 30 days", now.Add(30 * 24 * time.Hour), 30, CertExpiring},
		{"expiring soon", now.Add(36 * time.Hour), 1, CertExpiring},
		{"expired", now.Add(-36 * time.Hour), -2, CertExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := certFromState(leaf(tt.notAfter), now)
			require.NotNil(t, cs)
			assert.Equal(t, tt.status, cs.Status)
			assert.Equal(t, tt.days, cs.DaysLeft)
			assert.Equal(t, "docs.example.com", cs.Subject)
			assert.Equal(t, "Example CA", cs.Issuer)
		})
	}

	assert.Nil(t, certFromState(nil, now))
	assert.Nil(t, certFromState(&tls.ConnectionState{}, now))
}
