// Package hcaptcha verifies hCaptcha tokens submitted by guests.
package hcaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fundfox/fundfox/internal/pkg/env"
)

const defaultVerifyURL = "https://hcaptcha.com/siteverify"

var (
	ErrEmptyToken    = errors.New("hCaptcha token is empty")
	ErrNotConfigured = errors.New("hCaptcha secret is not set")
)

type Response struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

type Verifier struct {
	Secret     string
	VerifyURL  string
	HTTPClient *http.Client
}

func NewVerifierFromEnv() *Verifier {
	return &Verifier{
		Secret:     env.GetEnv("HCAPTCHA_SECRET", ""),
		VerifyURL:  env.GetEnv("HCAPTCHA_VERIFY_URL", defaultVerifyURL),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}
	if v.Secret == "" {
		return ErrNotConfigured
	}

	form := url.Values{
		"secret":   {v.Secret},
		"response": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := v.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to hCaptcha API: %w", err)
	}
	defer resp.Body.Close()

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode hCaptcha API response: %w", err)
	}

	if !response.Success {
		msg := "hCaptcha validation failed"
		if len(response.ErrorCodes) > 0 {
			msg += ": " + strings.Join(response.ErrorCodes, ", ")
		}
		return errors.New(msg)
	}
	return nil
}
