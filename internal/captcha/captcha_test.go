package captcha

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerify(t *testing.T) {
	t.Run("disabled verifier accepts anything", func(t *testing.T) {
		v := NewVerifier("", "http://invalid.test")
		if err := v.Verify(context.Background(), "whatever", ""); err != nil {
			t.Errorf("Verify() = %v, want nil", err)
		}
	})

	t.Run("empty token fails without calling provider", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		v := NewVerifier("secret", srv.URL)
		err := v.Verify(context.Background(), "", "")
		if !errors.Is(err, ErrVerificationFailed) {
			t.Errorf("Verify() = %v, want ErrVerificationFailed", err)
		}
		if called {
			t.Error("provider was called for an empty token")
		}
	})

	t.Run("provider success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			if r.PostForm.Get("secret") != "secret" || r.PostForm.Get("response") != "tok" {
				t.Errorf("unexpected form: %v", r.PostForm)
			}
			w.Write([]byte(`{"success": true}`))
		}))
		defer srv.Close()

		v := NewVerifier("secret", srv.URL)
		if err := v.Verify(context.Background(), "tok", "1.2.3.4"); err != nil {
			t.Errorf("Verify() = %v, want nil", err)
		}
	})

	t.Run("provider rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
		}))
		defer srv.Close()

		v := NewVerifier("secret", srv.URL)
		err := v.Verify(context.Background(), "bad", "")
		if !errors.Is(err, ErrVerificationFailed) {
			t.Errorf("Verify() = %v, want ErrVerificationFailed", err)
		}
	})
}
