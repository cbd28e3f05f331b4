package services

import (
	"strings"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
)

// RedirectPathPrefix is where short codes are served.
const RedirectPathPrefix = "/open/"

// ShortURLStringifier renders the public URL of a link.
type ShortURLStringifier struct {
	baseURL string
}

func NewShortURLStringifier(baseURL string) *ShortURLStringifier {
	return &ShortURLStringifier{baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *ShortURLStringifier) Stringify(link *domain.Link) string {
	return s.baseURL + RedirectPathPrefix + link.ShortCode
}
