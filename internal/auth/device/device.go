package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent turns a raw User-Agent header into a short display label
// for the session list, e.g. "Chrome on Mac OS X".
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)

	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	osName := ua.OSInfo().Name
	if osName == "" {
		osName = ua.Platform()
	}
	if osName == "" {
		osName = "Unknown OS"
	}

	if platform := ua.Platform(); ua.Mobile() && platform != "" && !strings.Contains(osName, platform) {
		osName = platform + " (" + osName + ")"
	}

	return strings.Join(strings.Fields(browser+" on "+osName), " ")
}
