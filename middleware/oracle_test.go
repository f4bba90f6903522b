package middleware

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func oracleTestServer(t *testing.T) (ed25519.PrivateKey, http.Handler) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	t.Setenv("ORACLE_PUBLIC_KEY", base64.StdEncoding.EncodeToString(pub))

	handler := OracleAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Body must still be readable after the middleware verified it.
		b, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}))
	return priv, handler
}

func TestOracleAuth_ValidSignature(t *testing.T) {
	priv, handler := oracleTestServer(t)

	body := []byte(`{"challenge_id":1,"number":"81234567","steps":1200,"timestamp":1700000000}`)
	sig := ed25519.Sign(priv, body)

	req := httptest.NewRequest("POST", "http://example.local/v1/oracle/sync", bytes.NewReader(body))
	req.Header.Set(OracleSignatureHeader, base64.StdEncoding.EncodeToString(sig))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != string(body) {
		t.Fatalf("body not restored for downstream handler: %q", rec.Body.String())
	}
}

func TestOracleAuth_MissingSignature(t *testing.T) {
	_, handler := oracleTestServer(t)

	req := httptest.NewRequest("POST", "http://example.local/v1/oracle/sync", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOracleAuth_TamperedBody(t *testing.T) {
	priv, handler := oracleTestServer(t)

	signed := []byte(`{"steps":1200}`)
	sig := ed25519.Sign(priv, signed)

	req := httptest.NewRequest("POST", "http://example.local/v1/oracle/sync", bytes.NewReader([]byte(`{"steps":99999}`)))
	req.Header.Set(OracleSignatureHeader, base64.StdEncoding.EncodeToString(sig))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered body, got %d", rec.Code)
	}
}

func TestOracleAuth_WrongKey(t *testing.T) {
	_, handler := oracleTestServer(t)

	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	body := []byte(`{"steps":1200}`)
	sig := ed25519.Sign(otherPriv, body)

	req := httptest.NewRequest("POST", "http://example.local/v1/oracle/sync", bytes.NewReader(body))
	req.Header.Set(OracleSignatureHeader, base64.StdEncoding.EncodeToString(sig))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key, got %d", rec.Code)
	}
}

func TestOracleAuth_Unconfigured(t *testing.T) {
	t.Setenv("ORACLE_PUBLIC_KEY", "")
	handler := OracleAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without oracle config")
	}))

	req := httptest.NewRequest("POST", "http://example.local/v1/oracle/sync", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
