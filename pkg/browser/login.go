package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fengxsong/douyin-crawler/pkg/captcha"
	"github.com/fengxsong/douyin-crawler/pkg/douyin"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

// Selectors for the login dialog and the slider verification overlay.
const (
	qrCodeSelector         = "article[class*='web-login'] img, #login-pannel img"
	captchaBackgroundImage = "#captcha_verify_image"
	captchaGapImage        = "img.captcha_verify_img_slide"
	captchaDragButton      = ".secsdk-captcha-drag-icon"
)

const (
	loginPollInterval = 2 * time.Second
	captchaWait       = 3 * time.Second
	qrCodeArtifact    = "login_qrcode.png"
)

// LoginFlow walks a user through the QR-code login, solving slider
// captchas along the way, until the browser session is authenticated.
type LoginFlow struct {
	browser *Browser
	solver  *captcha.Solver
	policy  captcha.TrackPolicy
	logger  logger.Logger
}

// NewLoginFlow builds a login flow around an already-launched browser.
func NewLoginFlow(b *Browser, solver *captcha.Solver, policy captcha.TrackPolicy, log logger.Logger) *LoginFlow {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LoginFlow{browser: b, solver: solver, policy: policy, logger: log}
}

// Begin runs the login: it surfaces the QR code, then polls the cookie
// jar until the login status cookie flips. Returns the authenticated
// cookie snapshot, or an error when ctx expires first.
func (f *LoginFlow) Begin(ctx context.Context) ([]douyin.Cookie, error) {
	cookies, err := f.browser.Cookies()
	if err != nil {
		return nil, err
	}
	if douyin.IsLoggedIn(cookies) {
		f.logger.Info("session already authenticated, skipping login")
		return cookies, nil
	}

	if err := f.surfaceQRCode(); err != nil {
		f.logger.WithError(err).Warn("could not extract login qr code, scan it in the browser window")
	} else {
		f.logger.Info(fmt.Sprintf("login qr code saved to %s, scan it with the mobile app", qrCodeArtifact))
	}

	ticker := time.NewTicker(loginPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("login not completed: %w", ctx.Err())
		case <-ticker.C:
		}

		f.maybeSolveCaptcha()

		cookies, err = f.browser.Cookies()
		if err != nil {
			return nil, err
		}
		if douyin.IsLoggedIn(cookies) {
			f.logger.Info("login confirmed")
			return cookies, nil
		}
	}
}

// surfaceQRCode pulls the QR code image out of the login dialog and
// writes it next to the binary so headless users can scan it.
func (f *LoginFlow) surfaceQRCode() error {
	data, err := f.browser.ElementImage(qrCodeSelector, captchaWait)
	if err != nil {
		return err
	}
	return os.WriteFile(qrCodeArtifact, data, 0o644)
}

// maybeSolveCaptcha checks whether the slider verification overlay is
// up and, if so, solves it. Failures are logged and swallowed; the site
// re-issues the challenge and the poll loop will come back around.
func (f *LoginFlow) maybeSolveCaptcha() {
	bg, err := f.browser.ElementImage(captchaBackgroundImage, captchaWait)
	if err != nil {
		return
	}
	gap, err := f.browser.ElementImage(captchaGapImage, captchaWait)
	if err != nil {
		return
	}
	f.logger.Info("slider captcha detected, solving")
	if err := f.SolveSlider(captcha.Challenge{Background: bg, Gap: gap}); err != nil {
		f.logger.WithError(err).Warn("slider captcha attempt failed")
	}
}

// SolveSlider locates the gap in the challenge, synthesizes a motion
// track for the distance, and replays it on the drag button.
func (f *LoginFlow) SolveSlider(challenge captcha.Challenge) error {
	distance, err := f.solver.LocateGap(challenge)
	if err != nil {
		return fmt.Errorf("failed to locate captcha gap: %w", err)
	}
	track, err := captcha.SynthesizeTrack(distance, f.policy)
	if err != nil {
		return fmt.Errorf("failed to synthesize track: %w", err)
	}
	f.logger.DebugWithFields("replaying slider track", map[string]interface{}{
		"distance": distance,
		"steps":    len(track),
	})
	return f.browser.DragSlider(captchaDragButton, track)
}
