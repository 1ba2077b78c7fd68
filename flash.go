package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const flashCookie = "kas_flash"

type flash struct {
	Category string
	Message  string
}

// setFlash stores a one-shot message shown on the next rendered page.
func (s *server) setFlash(c *gin.Context, category, message string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, category+"|"+message, 60, "/", "", s.cfg.CookieSecure, true)
}

// popFlash returns and clears the pending message, or nil.
func popFlash(c *gin.Context) *flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	category, message, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return &flash{Category: category, Message: message}
}
