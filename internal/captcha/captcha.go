package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/highdesertlabs/porchlight/internal/config"
	"github.com/highdesertlabs/porchlight/pkg/logger"
)

// Result carries the outcome of one token verification
type Result struct {
	OK      bool
	Score   float64
	Skipped bool
}

// Verifier checks reCAPTCHA tokens against the siteverify endpoint
type Verifier struct {
	secret    string
	minScore  float64
	verifyURL string
	client    *http.Client
}

// NewVerifier creates a verifier from config. An empty secret produces a
// verifier that skips verification entirely (dev mode).
func NewVerifier(cfg config.CaptchaConfig) *Verifier {
	return &Verifier{
		secret:    cfg.Secret,
		minScore:  cfg.MinScore,
		verifyURL: cfg.VerifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a secret is configured
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// Verify checks a submission token. With no secret configured every token
// passes; with a secret configured a missing or low-scoring token fails
// closed. Only score metadata is ever logged, never the token or secret.
func (v *Verifier) Verify(ctx context.Context, token string) Result {
	if !v.Enabled() {
		return Result{OK: true, Score: 1, Skipped: true}
	}

	if token == "" {
		return Result{OK: false, Score: 0}
	}

	params := url.Values{}
	params.Set("secret", v.secret)
	params.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL,
		strings.NewReader(params.Encode()))
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to build captcha verify request")
		return Result{OK: false, Score: 0}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Captcha verify request failed")
		return Result{OK: false, Score: 0}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.ErrorEvent().Int("status", resp.StatusCode).Msg("Captcha verify returned non-200")
		return Result{OK: false, Score: 0}
	}

	var body struct {
		Success    bool     `json:"success"`
		Score      *float64 `json:"score"`
		Action     string   `json:"action"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to decode captcha verify response")
		return Result{OK: false, Score: 0}
	}

	score := 0.0
	if body.Score != nil {
		score = *body.Score
	}

	ok := body.Success && score >= v.minScore
	if !ok {
		logger.WarnEvent().
			Bool("success", body.Success).
			Str("score", fmt.Sprintf("%.2f", score)).
			Strs("error_codes", body.ErrorCodes).
			Msg("Captcha verification rejected")
	}

	return Result{OK: ok, Score: score}
}
