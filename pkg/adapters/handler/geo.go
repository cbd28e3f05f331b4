package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
)

// edgeLocation reads the geolocation headers Vercel adds to every request.
// It returns nil when no country is present.
func edgeLocation(r *http.Request) *domain.VisitLocation {
	country := r.Header.Get("X-Vercel-IP-Country")
	if country == "" {
		return nil
	}

	loc := &domain.VisitLocation{
		CountryCode: country,
		RegionName:  r.Header.Get("X-Vercel-IP-Country-Region"),
		Timezone:    r.Header.Get("X-Vercel-IP-Timezone"),
	}
	// City names are URL-encoded to survive non-ASCII characters.
	if city, err := url.QueryUnescape(r.Header.Get("X-Vercel-IP-City")); err == nil {
		loc.CityName = city
	}
	loc.Latitude, _ = strconv.ParseFloat(r.Header.Get("X-Vercel-IP-Latitude"), 64)
	loc.Longitude, _ = strconv.ParseFloat(r.Header.Get("X-Vercel-IP-Longitude"), 64)
	return loc
}
