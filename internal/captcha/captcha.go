// Package captcha verifies CAPTCHA tokens against the provider's server-side
// verification endpoint. The provider is consumed only through its documented
// request/response contract.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrVerificationFailed means the provider rejected the token.
var ErrVerificationFailed = errors.New("captcha verification failed")

// Verifier posts tokens to the verification endpoint. A Verifier with an
// empty secret accepts everything (local development).
type Verifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// NewVerifier creates a CAPTCHA verifier.
func NewVerifier(secret, verifyURL string) *Verifier {
	return &Verifier{
		secret:    secret,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether verification is configured.
func (v *Verifier) Enabled() bool { return v.secret != "" }

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks a client token. Returns ErrVerificationFailed when the
// provider says no, a transport error when it cannot be reached.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !v.Enabled() {
		return nil
	}
	if token == "" {
		return ErrVerificationFailed
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !body.Success {
		return ErrVerificationFailed
	}
	return nil
}
