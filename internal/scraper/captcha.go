package scraper

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"casetracker/internal/config"
	"casetracker/pkg/logger"
)

const (
	twoCaptchaSubmitURL = "http://2captcha.com/in.php"
	twoCaptchaResultURL = "http://2captcha.com/res.php"
	captchaNotReady     = "CAPCHA_NOT_READY"
)

// CaptchaSolver resolves challenge images via the 2Captcha request/poll API,
// falling back to a scratch-directory protocol for manual completion.
type CaptchaSolver struct {
	cfg    *config.Config
	log    *logger.Logger
	client *resty.Client
}

type twoCaptchaResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

func NewCaptchaSolver(cfg *config.Config, log *logger.Logger) *CaptchaSolver {
	return &CaptchaSolver{
		cfg: cfg,
		log: log,
		client: resty.New().
			SetTimeout(10 * time.Second).
			SetHeader("User-Agent", cfg.UserAgent),
	}
}

// Resolve turns a challenge source (data URL or HTTP URL) into solved text.
// It returns "" when no automated solution is available; in that case a
// non-empty challenge ID means the image was parked in the scratch directory
// for out-of-band solving (see AwaitManual). Failures are logged, never
// returned.
func (c *CaptchaSolver) Resolve(ctx context.Context, source string) (text, challenge string) {
	image, err := c.fetchImage(ctx, source)
	if err != nil {
		c.log.Warn("Failed to fetch CAPTCHA image", "error", err)
		return "", ""
	}

	if c.cfg.CaptchaAPIKey != "" {
		text, err = c.solveRemote(ctx, image)
		if err != nil {
			c.log.Warn("Remote CAPTCHA solving failed", "error", err)
		} else if ValidateFormat(text) {
			c.log.Info("CAPTCHA solved remotely", "length", len(text))
			return text, ""
		} else {
			c.log.Warn("Remote CAPTCHA solution failed format check", "text", text)
		}
	}

	challenge, err = c.parkForManual(image)
	if err != nil {
		c.log.Warn("Failed to save CAPTCHA for manual solving", "error", err)
		return "", ""
	}
	c.log.Info("CAPTCHA parked for manual solving", "challenge", challenge)
	return "", challenge
}

// fetchImage decodes an inline data URL or downloads the challenge image.
func (c *CaptchaSolver) fetchImage(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "data:image") {
		parts := strings.SplitN(source, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed data URL")
		}
		data, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("decoding data URL: %w", err)
		}
		return data, nil
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := c.client.R().SetContext(ctx).Get(source)
		if err != nil {
			return nil, fmt.Errorf("downloading challenge image: %w", err)
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("downloading challenge image: status %s", resp.Status())
		}
		return resp.Body(), nil
	}

	return nil, fmt.Errorf("unsupported challenge source: %q", source)
}

// solveRemote submits the image to 2Captcha and polls for the solution at
// the configured interval until the poll limit elapses. A "not ready"
// response is retryable; any other non-success response ends the attempt.
func (c *CaptchaSolver) solveRemote(ctx context.Context, image []byte) (string, error) {
	var submit twoCaptchaResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"key":    c.cfg.CaptchaAPIKey,
			"method": "base64",
			"body":   base64.StdEncoding.EncodeToString(image),
			"json":   "1",
		}).
		SetResult(&submit).
		Post(twoCaptchaSubmitURL)
	if err != nil {
		return "", fmt.Errorf("submitting challenge: %w", err)
	}
	if !resp.IsSuccess() || submit.Status != 1 {
		return "", fmt.Errorf("challenge submission rejected: %s", submit.Request)
	}

	deadline := time.Now().Add(c.cfg.CaptchaPollLimit)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.cfg.CaptchaPollEvery):
		}

		var result twoCaptchaResponse
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"key":    c.cfg.CaptchaAPIKey,
				"action": "get",
				"id":     submit.Request,
				"json":   "1",
			}).
			SetResult(&result).
			Get(twoCaptchaResultURL)
		if err != nil {
			continue
		}
		if !resp.IsSuccess() {
			continue
		}
		if result.Status == 1 {
			return result.Request, nil
		}
		if result.Request != captchaNotReady {
			return "", fmt.Errorf("solver error: %s", result.Request)
		}
	}

	return "", fmt.Errorf("solver timed out after %s", c.cfg.CaptchaPollLimit)
}

// parkForManual writes the challenge image to the scratch directory and
// returns its challenge ID. A solution is posted back as <id>.txt, either by
// an operator or through the manual-completion API endpoints.
func (c *CaptchaSolver) parkForManual(image []byte) (string, error) {
	if err := os.MkdirAll(c.cfg.CaptchaScratchDir, 0755); err != nil {
		return "", err
	}
	id := uuid.NewString()
	path := filepath.Join(c.cfg.CaptchaScratchDir, id+".png")
	if err := os.WriteFile(path, image, 0644); err != nil {
		return "", err
	}
	return id, nil
}

// AwaitManual polls the scratch directory for a posted solution until the
// grace period elapses. Challenge files are removed once a solution is read.
func (c *CaptchaSolver) AwaitManual(ctx context.Context, challenge string, wait time.Duration) string {
	solutionPath := filepath.Join(c.cfg.CaptchaScratchDir, challenge+".txt")
	imagePath := filepath.Join(c.cfg.CaptchaScratchDir, challenge+".png")

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(solutionPath); err == nil {
			solution := strings.TrimSpace(string(data))
			os.Remove(solutionPath)
			os.Remove(imagePath)
			if ValidateFormat(solution) {
				return solution
			}
			c.log.Warn("Manual CAPTCHA solution failed format check", "challenge", challenge)
			return ""
		}
		select {
		case <-ctx.Done():
			return ""
		case <-time.After(time.Second):
		}
	}

	c.log.Info("No manual CAPTCHA solution observed", "challenge", challenge)
	return ""
}

// ValidateFormat reports whether text looks like a plausible CAPTCHA
// solution: alphanumeric, 4 to 8 characters.
func ValidateFormat(text string) bool {
	if len(text) < 4 || len(text) > 8 {
		return false
	}
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
