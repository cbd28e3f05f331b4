package services

import "strings"

// botPatterns are known bot User-Agent substrings (lowercase).
var botPatterns = []string{
	"bot", "crawler", "spider", "slurp", "curl", "wget",
	"facebookexternalhit", "embedly", "quora link preview",
	"showyoubot", "outbrain", "pinterest", "python-requests",
	"go-http-client", "headlesschrome", "lighthouse",
}

// IsPotentialBot flags empty or known-bot user agents.
func IsPotentialBot(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	if ua == "" {
		return true
	}
	for _, pattern := range botPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
