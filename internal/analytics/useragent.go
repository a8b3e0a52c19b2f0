package analytics

import "strings"

// Device categories form a closed set; every click lands in exactly one.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceUnknown = "unknown"
)

// UnknownValue is the sentinel used wherever classification has no answer
const UnknownValue = "unknown"

// UAInfo is the device/browser/OS classification of a raw user-agent string
type UAInfo struct {
	Device  string `json:"device"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

var mobileKeywords = []string{"mobile", "android", "iphone", "ipod", "blackberry", "windows phone"}
var tabletKeywords = []string{"ipad", "tablet"}

// ParseUserAgent classifies a raw user-agent string. It never fails: an empty
// user-agent yields unknown for all three fields (device is NOT defaulted to
// desktop in that case).
//
// Browser detection is ordered Firefox > Edge > Chrome > Safari > Opera
// because Chromium-family user agents contain overlapping substrings ("edg"
// strings also contain "chrome", Chrome strings also contain "safari").
func ParseUserAgent(userAgent string) UAInfo {
	if userAgent == "" {
		return UAInfo{Device: DeviceUnknown, Browser: UnknownValue, OS: UnknownValue}
	}

	ua := strings.ToLower(userAgent)

	device := DeviceDesktop
	if containsAny(ua, mobileKeywords) {
		device = DeviceMobile
	} else if containsAny(ua, tabletKeywords) {
		device = DeviceTablet
	}

	browser := UnknownValue
	switch {
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		browser = "Opera"
	}

	os := UnknownValue
	switch {
	case strings.Contains(ua, "windows"):
		os = "Windows"
	case strings.Contains(ua, "mac"):
		os = "macOS"
	case strings.Contains(ua, "linux"):
		os = "Linux"
	case strings.Contains(ua, "android"):
		os = "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		os = "iOS"
	}

	return UAInfo{Device: device, Browser: browser, OS: os}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
