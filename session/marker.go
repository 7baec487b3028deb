package session

import (
	"net/http"
	"net/url"
)

// DefaultMarkerCookie is the cookie the backend sets while a session may exist.
const DefaultMarkerCookie = "logged_in"

// Marker hints whether a session might exist. It is never authoritative; the
// probe response decides.
type Marker interface {
	Present() bool
}

// MarkerFunc adapts a function to Marker.
type MarkerFunc func() bool

func (f MarkerFunc) Present() bool { return f() }

// CookieMarker looks for a non-empty, non-"false" cookie in a jar.
type CookieMarker struct {
	Jar  http.CookieJar
	URL  *url.URL
	Name string
}

var _ Marker = CookieMarker{}

func NewCookieMarker(jar http.CookieJar, backendURL *url.URL) CookieMarker {
	return CookieMarker{Jar: jar, URL: backendURL, Name: DefaultMarkerCookie}
}

func (m CookieMarker) Present() bool {
	if m.Jar == nil || m.URL == nil {
		return false
	}
	name := m.Name
	if name == "" {
		name = DefaultMarkerCookie
	}
	for _, c := range m.Jar.Cookies(m.URL) {
		if c.Name == name {
			return c.Value != "" && c.Value != "false"
		}
	}
	return false
}
