package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readsync/internal/apperr"
	"readsync/internal/auth"
)

func (s *Server) handleRegister(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	sess, err := s.auth.Register(c.Request.Context(), field(raw, "name"), field(raw, "email"), field(raw, "password"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) handleLogin(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	sess, err := s.auth.Login(c.Request.Context(), field(raw, "email"), field(raw, "password"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleProfile(c *gin.Context) {
	u, ok := auth.CurrentUser(c)
	if !ok {
		s.writeError(c, apperr.Unauthenticated("Authentication required."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u.Public()})
}
