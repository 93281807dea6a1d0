//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight per-request metadata (user-agent fingerprint, client IP,
//  URL, and timestamp) recorded in the audit trail when grants are created
//  or revoked.  The structs are inert: no database handles, no large
//  buffers, safe to log or JSON-encode.
//

package requestinfo

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avct/uasurfer"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties worth auditing.
type UA struct {
	Raw     string // Entire User-Agent header
	Browser string // "Chrome", "Firefox", "Safari", etc.
	Version string // "124.0.6367"
	OS      string // "MacOSX", "Windows", "Android", etc.
	Device  string // "Computer", "Phone", "Tablet", ...
	IsBot   bool   // True if UA matches a crawler signature
}

// Info is captured once per mutating request and attached to audit events.
type Info struct {
	UA        UA
	IP        net.IP // Direct peer address, not the X-Forwarded-For chain
	URL       *url.URL
	Timestamp time.Time
}

//
//  -----------------------------
//  Collection
//  -----------------------------
//

// FromRequest parses the request into an Info.  Cheap enough to call inline
// from the handlers that need it; no middleware required.
func FromRequest(r *http.Request) *Info {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return &Info{
		UA:        parseUA(r.UserAgent()),
		IP:        net.ParseIP(host),
		URL:       r.URL,
		Timestamp: time.Now(),
	}
}

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(raw string) UA {
	u := uasurfer.Parse(raw)

	v := u.Browser.Version
	return UA{
		Raw:     raw,
		Browser: strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version: fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch),
		OS:      strings.TrimPrefix(u.OS.Name.String(), "OS"),
		Device:  strings.TrimPrefix(u.DeviceType.String(), "Device"),
		IsBot:   u.IsBot(),
	}
}
