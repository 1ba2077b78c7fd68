package main

import (
	"errors"
	"net/http"

	"bukukas/pkg/apperr"
	"bukukas/pkg/auth"
	"bukukas/pkg/session"

	"github.com/gin-gonic/gin"
)

type capability int

const (
	capView capability = iota
	capWrite
	capManageKas
	capManageMembers
)

const identityKey = "identity"

// requireSession redirects to /login unless the request carries a live session.
// A failing session store is a 500, not a logout.
func (s *server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.sessions.Load(c.Request.Context(), c.Request)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				s.renderError(c, apperr.Storage("load session", err))
				return
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(identityKey, sess.Identity())
		c.Set("username", sess.Username)
		c.Next()
	}
}

// require gates a route on a capability. It runs after requireSession.
func (s *server) require(cp capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if !s.allowed(id, cp) {
			s.renderError(c, apperr.Authorization("Hanya admin yang dapat melakukan aksi ini."))
			return
		}
		c.Next()
	}
}

func (s *server) allowed(id auth.Identity, cp capability) bool {
	switch cp {
	case capManageKas:
		return id.IsAdmin()
	case capManageMembers:
		return !s.cfg.MembersRequireAdmin || id.IsAdmin()
	}
	return true
}

func currentIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

func (s *server) loginPage(c *gin.Context) {
	if _, err := s.sessions.Load(c.Request.Context(), c.Request); err == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "login", s.page(c, "Masuk", nil))
}

func (s *server) loginHandler(c *gin.Context) {
	username := c.PostForm("username")
	id, err := s.auth.Authenticate(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		status := apperr.Status(err)
		if status >= http.StatusInternalServerError {
			s.authLog.Error("login failed", "error", err)
		} else {
			s.authLog.Warn("login failed", "username", username, "client_ip", c.ClientIP())
		}
		c.HTML(status, "login", s.page(c, "Masuk", gin.H{
			"Error":    apperr.PublicMessage(err),
			"Username": username,
		}))
		return
	}
	if _, err := s.sessions.Start(c.Request.Context(), c.Writer, id); err != nil {
		s.renderError(c, apperr.Storage("start session", err))
		return
	}
	s.authLog.Info("login", "username", id.Username, "role", id.Role)
	c.Redirect(http.StatusFound, "/")
}

// logoutHandler always clears the session, even when none is present.
func (s *server) logoutHandler(c *gin.Context) {
	if err := s.sessions.Destroy(c.Request.Context(), c.Writer, c.Request); err != nil {
		s.authLog.Warn("session delete failed", "error", err)
	}
	c.Redirect(http.StatusFound, "/login")
}
