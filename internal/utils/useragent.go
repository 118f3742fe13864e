package utils

import (
	"github.com/mssola/user_agent"
)

// DeviceInfo describes the client that made a request, for request logs
type DeviceInfo struct {
	Browser  string `json:"browser"`
	OS       string `json:"os"`
	Platform string `json:"platform"`
	IsMobile bool   `json:"is_mobile"`
	IsBot    bool   `json:"is_bot"`
}

// ParseUserAgent extracts device information from a User-Agent header
func ParseUserAgent(uaString string) DeviceInfo {
	ua := user_agent.New(uaString)

	browser, version := ua.Browser()
	if version != "" {
		browser = browser + " " + version
	}

	return DeviceInfo{
		Browser:  browser,
		OS:       ua.OS(),
		Platform: ua.Platform(),
		IsMobile: ua.Mobile(),
		IsBot:    ua.Bot(),
	}
}
