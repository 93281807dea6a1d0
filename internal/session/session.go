// internal/session/session.go
//
// Signed user-session cookie.
//
// Context
//   The ACL consumes an already-authenticated user identity; this package is
//   where that identity persists between requests.  The cookie value is
//   "userID|expiryUnix|signature" where the signature is HMAC-SHA256 over
//   the first two fields with a server-side key from config.  A missing,
//   malformed, expired, or badly-signed cookie simply reads as "no user";
//   the principal resolver then falls through to anonymous.
//
//   Credential issuance (login UI, password verification, OAuth) is out of
//   scope here; callers invoke LoginUser after they have verified identity
//   by whatever means they own.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const cookieName = "taskgrid_session"

// Manager signs and verifies session cookies.  Safe for concurrent use.
type Manager struct {
	key []byte
	ttl time.Duration
}

// New builds a Manager.  key must be non-empty; ttl <= 0 falls back to 14 days.
func New(key string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &Manager{key: []byte(key), ttl: ttl}
}

// sign returns the hex HMAC over "userID|exp".
func (m *Manager) sign(userID string, exp int64) string {
	mac := hmac.New(sha256.New, m.key)
	mac.Write([]byte(userID + "|" + strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// LoginUser sets a signed session cookie for userID.
func (m *Manager) LoginUser(w http.ResponseWriter, r *http.Request, userID string) {
	exp := time.Now().Add(m.ttl).Unix()
	val := base64.RawURLEncoding.EncodeToString([]byte(userID)) + "|" +
		strconv.FormatInt(exp, 10) + "|" + m.sign(userID, exp)

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(exp, 0),
	})
}

// LogoutUser clears the session cookie.
func (m *Manager) LogoutUser(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// CurrentUser returns the user id carried by a valid session cookie.
//
// ok == false when the cookie is absent, expired, or fails verification.
func (m *Manager) CurrentUser(r *http.Request) (userID string, ok bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}

	parts := strings.Split(c.Value, "|")
	if len(parts) != 3 {
		return "", false
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", false
	}
	uid := string(raw)

	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() >= exp {
		return "", false
	}

	want := m.sign(uid, exp)
	if !hmac.Equal([]byte(want), []byte(parts[2])) {
		return "", false
	}
	return uid, true
}
