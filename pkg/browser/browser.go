// Package browser drives a persistent Chromium profile through the
// Chrome DevTools Protocol. It exists for the parts of the crawl that
// cannot be done over plain HTTP: the initial login, slider captcha
// verification, and harvesting the cookies and localStorage tokens the
// API client needs.
package browser

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/fengxsong/douyin-crawler/pkg/douyin"
	"github.com/fengxsong/douyin-crawler/pkg/errors"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

// Options configures a Browser.
type Options struct {
	// ProfileDir is the persistent user data directory. Cookies and
	// localStorage survive between runs, so a successful login only has
	// to happen once.
	ProfileDir string
	Headless   bool
	UserAgent  string
	Logger     logger.Logger
}

// Browser wraps a rod browser with a single active page.
type Browser struct {
	browser *rod.Browser
	page    *rod.Page
	logger  logger.Logger
}

// New launches Chromium with a persistent profile and opens one page
// with the stealth script installed.
func New(opts Options) (*Browser, error) {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	path, _ := launcher.LookPath()
	l := launcher.New().
		Bin(path).
		UserDataDir(opts.ProfileDir).
		Leakless(false).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-gpu").
		Set("no-sandbox")
	if opts.Headless {
		l = l.Set("headless", "new")
	} else {
		l = l.Headless(false)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	// stealth.Page injects the anti-detection script before any site
	// script runs on every navigation.
	page, err := stealth.Page(b)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to open stealth page: %w", err)
	}
	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	log.DebugWithFields("browser launched", map[string]interface{}{
		"profile_dir": opts.ProfileDir,
		"headless":    opts.Headless,
	})

	return &Browser{browser: b, page: page, logger: log}, nil
}

// Navigate loads the given URL and waits for the load event.
func (b *Browser) Navigate(url string) error {
	if err := b.page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return b.page.WaitLoad()
}

// Page exposes the underlying rod page for flows that need raw access.
func (b *Browser) Page() *rod.Page {
	return b.page
}

// Cookies returns every cookie in the browser context.
func (b *Browser) Cookies() ([]douyin.Cookie, error) {
	raw, err := b.browser.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	cookies := make([]douyin.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, douyin.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies, nil
}

// LocalStorage returns the value stored under key on the current page,
// or "" when absent.
func (b *Browser) LocalStorage(key string) (string, error) {
	obj, err := b.page.Eval(`key => window.localStorage.getItem(key) || ""`, key)
	if err != nil {
		return "", fmt.Errorf("failed to read localStorage %q: %w", key, err)
	}
	return obj.Value.Str(), nil
}

// MsToken reads the msToken the site keeps in localStorage. Signed API
// calls ride on it.
func (b *Browser) MsToken() (string, error) {
	return b.LocalStorage("xmst")
}

// ElementImage waits for the selector and returns the decoded bytes of
// its src attribute. Only data URLs are supported; captcha images are
// always inlined.
func (b *Browser) ElementImage(selector string, timeout time.Duration) ([]byte, error) {
	page := b.page.Timeout(timeout)
	el, err := page.Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element %q not found: %w", selector, err)
	}
	src, err := el.Attribute("src")
	if err != nil || src == nil {
		return nil, errors.Image(fmt.Sprintf("element %q has no src", selector), err)
	}
	return decodeImageSrc(*src)
}

// decodeImageSrc extracts the raw image bytes from a data URL.
func decodeImageSrc(src string) ([]byte, error) {
	idx := strings.Index(src, ",")
	if !strings.HasPrefix(src, "data:") || idx < 0 {
		return nil, errors.Image("image src is not a data url", nil)
	}
	data, err := base64.StdEncoding.DecodeString(src[idx+1:])
	if err != nil {
		return nil, errors.Image("failed to decode image data url", err)
	}
	return data, nil
}

// DragSlider picks up the element at selector and replays the motion
// track as pointer events, pausing briefly between steps so the move
// looks human.
func (b *Browser) DragSlider(selector string, track []int) error {
	el, err := b.page.Element(selector)
	if err != nil {
		return fmt.Errorf("slider %q not found: %w", selector, err)
	}
	shape, err := el.Shape()
	if err != nil {
		return fmt.Errorf("failed to read slider shape: %w", err)
	}
	box := shape.Box()
	x := box.X + box.Width/2
	y := box.Y + box.Height/2

	mouse := b.page.Mouse
	if err := mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return fmt.Errorf("failed to move to slider: %w", err)
	}
	if err := mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to press slider: %w", err)
	}
	for _, delta := range track {
		x += float64(delta)
		if err := mouse.MoveLinear(proto.Point{X: x, Y: y + jitter(2)}, 2); err != nil {
			mouse.Up(proto.InputMouseButtonLeft, 1)
			return fmt.Errorf("failed to drag slider: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(40)) * time.Millisecond)
	}
	return mouse.Up(proto.InputMouseButtonLeft, 1)
}

func jitter(n int) float64 {
	return float64(rand.Intn(2*n+1) - n)
}

// Close shuts down the page and the browser process.
func (b *Browser) Close() error {
	if b.page != nil {
		b.page.Close()
	}
	return b.browser.Close()
}
