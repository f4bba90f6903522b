package middleware

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"strings"

	"solfit/utils"
)

// OracleSignatureHeader carries the oracle's detached signature over the raw
// request body, base64 encoded.
const OracleSignatureHeader = "X-Oracle-Signature"

// oraclePublicKey parses ORACLE_PUBLIC_KEY (base64 or hex). The oracle is a
// single trust root: whoever holds the matching private key may write step
// data for any participant, so the key is injected via env and rotated by
// redeploying config, never hardcoded.
func oraclePublicKey() (ed25519.PublicKey, bool) {
	raw := strings.TrimSpace(os.Getenv("ORACLE_PUBLIC_KEY"))
	if raw == "" {
		return nil, false
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil && len(b) == ed25519.PublicKeySize {
		return ed25519.PublicKey(b), true
	}
	if b, err := hex.DecodeString(raw); err == nil && len(b) == ed25519.PublicKeySize {
		return ed25519.PublicKey(b), true
	}
	return nil, false
}

// OracleAuthMiddleware only lets through requests whose body was signed by the
// configured oracle key. The body is restored for downstream handlers.
func OracleAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pub, ok := oraclePublicKey()
		if !ok {
			utils.WriteJSON(w, http.StatusServiceUnavailable, utils.APIResponse{Success: false, Message: "Oracle belum dikonfigurasi"})
			return
		}

		sigB64 := strings.TrimSpace(r.Header.Get(OracleSignatureHeader))
		if sigB64 == "" {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
			return
		}
		sig, err := base64.StdEncoding.DecodeString(sigB64)
		if err != nil || len(sig) != ed25519.SignatureSize {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid signature"})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid request body"})
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		if !ed25519.Verify(pub, body, sig) {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid signature"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
