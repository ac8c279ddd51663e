package douyin

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/fengxsong/douyin-crawler/pkg/errors"
)

//go:embed xbogus.js
var xbogusScript string

// Evaluator produces the platform signature for a serialized query string.
// The signing script is reverse-engineered third-party code; everything
// behind this interface is a black box.
type Evaluator interface {
	Sign(query, userAgent string) (string, error)
}

// GojaEvaluator runs the embedded signing script in an in-process JS VM.
// The VM is not safe for concurrent use, so calls are serialized.
type GojaEvaluator struct {
	mu   sync.Mutex
	sign func(string, string) string
}

// NewGojaEvaluator loads the embedded script and binds its sign function.
func NewGojaEvaluator() (*GojaEvaluator, error) {
	vm := goja.New()
	if _, err := vm.RunString(xbogusScript); err != nil {
		return nil, errors.Signing("failed to load signing script", err)
	}
	e := &GojaEvaluator{}
	if err := vm.ExportTo(vm.Get("sign"), &e.sign); err != nil {
		return nil, errors.Signing("signing script exports no sign function", err)
	}
	return e, nil
}

func (e *GojaEvaluator) Sign(query, userAgent string) (sig string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = errors.Signing("signing script panicked", nil)
		}
	}()
	sig = e.sign(query, userAgent)
	if sig == "" {
		return "", errors.Signing("signing script returned empty signature", nil)
	}
	return sig, nil
}

// Params is an insertion-ordered set of request parameters. The platform
// signs the query in the exact order the keys were added, so an unordered
// map cannot be used.
type Params struct {
	keys   []string
	values map[string]string
}

// NewParams creates an empty parameter set.
func NewParams() *Params {
	return &Params{values: map[string]string{}}
}

// Set adds or replaces a parameter, preserving first-insertion order.
func (p *Params) Set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key, or "".
func (p *Params) Get(key string) string {
	return p.values[key]
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	return len(p.keys)
}

// Encode serializes the parameters as key=value pairs joined by & in
// insertion order. Values are not escaped; the signing script expects the
// raw form.
func (p *Params) Encode() string {
	pairs := make([]string, 0, len(p.keys))
	for _, k := range p.keys {
		pairs = append(pairs, k+"="+p.values[k])
	}
	return strings.Join(pairs, "&")
}

// commonParams returns the platform-identity constants merged into every
// signed request. Values mirror what the web client reports.
func commonParams() [][2]string {
	return [][2]string{
		{"device_platform", "webapp"},
		{"aid", "6383"},
		{"channel", "channel_pc_web"},
		{"cookie_enabled", "true"},
		{"browser_language", "zh-CN"},
		{"browser_platform", "Win32"},
		{"browser_name", "Firefox"},
		{"browser_version", "110.0"},
		{"browser_online", "true"},
		{"engine_name", "Gecko"},
		{"os_name", "Windows"},
		{"os_version", "10"},
		{"engine_version", "109.0"},
		{"platform", "PC"},
		{"screen_width", "1920"},
		{"screen_height", "1200"},
	}
}

// Signer turns request parameters into a signed, platform-accepted query.
type Signer struct {
	evaluator Evaluator
}

// NewSigner wraps an evaluator.
func NewSigner(evaluator Evaluator) *Signer {
	return &Signer{evaluator: evaluator}
}

// Sign merges the platform-identity constants into params and appends the
// X-Bogus signature computed by the evaluator.
//
// params is mutated in place and must be treated as consumed: signing is
// not idempotent, and signing an already-signed set produces a signature
// over the previous signature. Sign immediately before transmission and
// discard afterward. An empty set passes through unsigned.
func (s *Signer) Sign(params *Params, userAgent string) error {
	if params == nil || params.Len() == 0 {
		return nil
	}
	for _, kv := range commonParams() {
		params.Set(kv[0], kv[1])
	}
	sig, err := s.evaluator.Sign(params.Encode(), userAgent)
	if err != nil {
		return err
	}
	params.Set("X-Bogus", sig)
	return nil
}
