package utils

import (
	"github.com/mssola/user_agent"
)

// DeviceInfo summarizes the client device behind a request, stored
// alongside refresh tokens so users can recognize their sessions
type DeviceInfo struct {
	DeviceType string
	OS         string
}

// ParseUserAgent derives device information from a User-Agent string
func ParseUserAgent(uaString string) DeviceInfo {
	if uaString == "" || uaString == "Unknown" {
		return DeviceInfo{DeviceType: "unknown", OS: "unknown"}
	}

	ua := user_agent.New(uaString)

	deviceType := "desktop"
	if ua.Mobile() {
		deviceType = "mobile"
	} else if ua.Bot() {
		deviceType = "bot"
	}

	os := ua.OS()
	if os == "" {
		os = "unknown"
	}

	return DeviceInfo{DeviceType: deviceType, OS: os}
}
