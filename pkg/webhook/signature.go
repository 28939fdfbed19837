package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HMACVerifier validates payloads signed with HMAC-SHA256 over
// "timestamp.payload", carried in a header of the form
// "t=<unix>,v1=<hex digest>". The format matches Stripe's webhook signature
// scheme so the verifier works for gateways and test harnesses alike.
type HMACVerifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// NewHMACVerifier creates a verifier. A tolerance of zero disables the
// replay-window check.
func NewHMACVerifier(secret string, tolerance time.Duration) (*HMACVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	return &HMACVerifier{secret: secret, tolerance: tolerance, now: time.Now}, nil
}

// Verify checks the signature header against the raw payload.
func (v *HMACVerifier) Verify(payload []byte, signature string) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrVerificationFailed)
	}

	timestamp, digest, err := parseSignatureHeader(signature)
	if err != nil {
		return err
	}

	// Reject stale or far-future timestamps to prevent replay attacks,
	// allowing a minute of clock skew.
	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(timestamp, 0))
		if age > v.tolerance {
			return fmt.Errorf("%w: signature timestamp too old (%v)", ErrVerificationFailed, age)
		}
		if age < -1*time.Minute {
			return fmt.Errorf("%w: signature timestamp is in the future", ErrVerificationFailed)
		}
	}

	expected := computeSignature(v.secret, timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(digest)) {
		return fmt.Errorf("%w: signature mismatch", ErrVerificationFailed)
	}
	return nil
}

// SignPayload produces a signature header for the given payload, signed at
// the given time. The counterpart of Verify, used by test harnesses and by
// applications that relay gateway events internally.
func SignPayload(secret string, payload []byte, at time.Time) string {
	timestamp := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", timestamp, computeSignature(secret, timestamp, payload))
}

func computeSignature(secret string, timestamp int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.", timestamp)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func parseSignatureHeader(header string) (timestamp int64, digest string, err error) {
	if header == "" {
		return 0, "", fmt.Errorf("%w: signature header is missing", ErrVerificationFailed)
	}

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("%w: invalid timestamp", ErrVerificationFailed)
			}
		case "v1":
			digest = value
		}
	}

	if timestamp == 0 || digest == "" {
		return 0, "", fmt.Errorf("%w: incomplete signature header", ErrVerificationFailed)
	}
	return timestamp, digest, nil
}
