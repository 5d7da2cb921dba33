package session

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
)

// The browser keeps the backend's session and anti-forgery cookies for free;
// a Go process has to snapshot the jar itself or every restart starts logged
// out regardless of what the credential store says.

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (c *Client) loadCookies() {
	if c.cookieFile == "" {
		return
	}
	data, err := os.ReadFile(c.cookieFile)
	if err != nil {
		return
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Warn().Str("path", c.cookieFile).Err(err).Msg("discarding malformed cookie snapshot")
		return
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: "/"})
	}
	c.httpClient.Jar.SetCookies(c.cookieOrigin(), cookies)
}

func (c *Client) persistCookies() {
	if c.cookieFile == "" {
		return
	}

	cookies := c.httpClient.Jar.Cookies(c.cookieOrigin())
	stored := make([]storedCookie, 0, len(cookies))
	for _, cookie := range cookies {
		stored = append(stored, storedCookie{Name: cookie.Name, Value: cookie.Value})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode cookie snapshot")
		return
	}
	if err := os.WriteFile(c.cookieFile, data, 0o600); err != nil {
		log.Warn().Str("path", c.cookieFile).Err(err).Msg("failed to persist cookie snapshot")
	}
}
