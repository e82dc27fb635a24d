// Package signature verifies webhook authenticity via HMAC-SHA256.
//
// Verification always runs on the raw request bytes. Verifying a
// re-serialized payload is a correctness bug: formatting differences
// invalidate the HMAC even when the JSON is semantically identical.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"warelay/internal/log"
)

// Verify checks an X-Hub-Signature-256 style header against the raw body
// using the pre-shared secret. The mismatch is logged, never raised; callers
// branch on the boolean.
func Verify(body []byte, header, secret string) bool {
	if err := verifyHMAC(body, header, secret); err != nil {
		log.WithComponent("signature").Warn("webhook signature verification failed",
			"header_present", header != "",
		)
		return false
	}
	return true
}

// verifyHMAC verifies an HMAC-SHA256 signature against the request body.
//
// Uses constant-time comparison (crypto/subtle) to prevent timing attacks.
// Supported header formats:
//   - "sha256=<hex>" (Meta/GitHub style)
//   - "<hex>" (plain hex)
//
// All errors are generic to prevent information leakage.
func verifyHMAC(body []byte, header, secret string) error {
	if secret == "" {
		return fmt.Errorf("webhook verification failed")
	}

	if header == "" {
		return fmt.Errorf("webhook verification failed")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expectedMAC := mac.Sum(nil)

	actualMAC, err := parseHeader(header)
	if err != nil {
		return fmt.Errorf("webhook verification failed")
	}

	if subtle.ConstantTimeCompare(expectedMAC, actualMAC) != 1 {
		return fmt.Errorf("webhook verification failed")
	}

	return nil
}

// parseHeader strips the algorithm prefix and decodes the hex signature.
func parseHeader(header string) ([]byte, error) {
	if strings.HasPrefix(header, "sha256=") {
		return hex.DecodeString(strings.TrimPrefix(header, "sha256="))
	}
	return hex.DecodeString(header)
}

// Compute returns the hex HMAC-SHA256 of body under secret. Used by tests
// and by outbound integrations that need to sign payloads.
func Compute(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Header formats a hex signature in the vendor's X-Hub-Signature-256 format.
func Header(hexSig string) string {
	return "sha256=" + hexSig
}
