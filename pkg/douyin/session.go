package douyin

import "strings"

// loginStatusCookie is the cookie the platform sets to "1" on a logged-in
// session.
const loginStatusCookie = "LOGIN_STATUS"

// Cookie is one name/value pair from the browser's cookie set.
type Cookie struct {
	Name  string
	Value string
}

// Session is a derived snapshot of the browser's cookies: the Cookie header
// string plus a name lookup. It is rebuilt wholesale on every refresh and
// never patched incrementally, because the browser can add, drop, or change
// cookies outside this package's control at any time.
type Session struct {
	header  string
	values  map[string]string
	msToken string
}

// NewSession snapshots a raw cookie list.
func NewSession(cookies []Cookie) *Session {
	s := &Session{values: make(map[string]string, len(cookies))}
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
		s.values[c.Name] = c.Value
	}
	s.header = strings.Join(parts, ";")
	return s
}

// ParseSession snapshots a "name=value; name=value" cookie string, the form
// operators paste out of browser devtools. Malformed segments are skipped.
func ParseSession(cookieStr string) *Session {
	var cookies []Cookie
	for _, part := range strings.Split(cookieStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		cookies = append(cookies, Cookie{Name: kv[0], Value: kv[1]})
	}
	return NewSession(cookies)
}

// Header returns the Cookie header string for outgoing requests.
func (s *Session) Header() string {
	return s.header
}

// Get returns the value of the named cookie, or "".
func (s *Session) Get(name string) string {
	return s.values[name]
}

// IsLoggedIn reports whether the snapshot carries a valid login.
func (s *Session) IsLoggedIn() bool {
	return s.values[loginStatusCookie] == "1"
}

// SetMsToken records the msToken pulled from the browser's local storage.
func (s *Session) SetMsToken(token string) {
	s.msToken = token
}

// MsToken returns the recorded msToken, or "".
func (s *Session) MsToken() string {
	return s.msToken
}

// IsLoggedIn reports whether a raw cookie list carries a valid login,
// without building a full snapshot.
func IsLoggedIn(cookies []Cookie) bool {
	for _, c := range cookies {
		if c.Name == loginStatusCookie {
			return c.Value == "1"
		}
	}
	return false
}
