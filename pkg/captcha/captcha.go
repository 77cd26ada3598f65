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

	"gastbook/config"
)

// ErrMissingToken is returned before any network call.
var ErrMissingToken = errors.New("captcha token is required")

// Result of a siteverify call.
type Result struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verifier checks reCAPTCHA tokens against siteverify.
type Verifier struct {
	secret    string
	verifyURL string
	minScore  float64
	client    *http.Client
}

func NewVerifier(cfg config.CaptchaConfig) *Verifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Verifier{
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		minScore:  cfg.MinScore,
		client:    &http.Client{Timeout: timeout},
	}
}

// Enabled is false when no secret is configured; Verify then accepts everything.
func (v *Verifier) Enabled() bool {
	return v != nil && v.secret != ""
}

// Verify accepts iff success is set and score >= min score.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) (bool, *Result, error) {
	if !v.Enabled() {
		return true, &Result{Success: true, Score: 1}, nil
	}
	if token == "" {
		return false, nil, ErrMissingToken
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, nil, fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, nil, fmt.Errorf("siteverify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil, fmt.Errorf("siteverify: unexpected status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, nil, fmt.Errorf("decode siteverify response: %w", err)
	}

	return result.Success && result.Score >= v.minScore, &result, nil
}
