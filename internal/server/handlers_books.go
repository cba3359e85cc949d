package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"readsync/internal/apperr"
	"readsync/internal/auth"
	"readsync/internal/lookup"
	"readsync/pkg/models"
)

// owner returns the authenticated user for a books route.
func (s *Server) owner(c *gin.Context) (models.User, bool) {
	u, ok := auth.CurrentUser(c)
	if !ok {
		s.writeError(c, apperr.Unauthenticated("Authentication required."))
	}
	return u, ok
}

func (s *Server) handleListBooks(c *gin.Context) {
	u, ok := s.owner(c)
	if !ok {
		return
	}
	books, err := s.books.List(c.Request.Context(), u.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

func (s *Server) handleGetBook(c *gin.Context) {
	u, ok := s.owner(c)
	if !ok {
		return
	}
	b, err := s.books.Get(c.Request.Context(), u.ID, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": b})
}

func (s *Server) handleCreateBook(c *gin.Context) {
	u, ok := s.owner(c)
	if !ok {
		return
	}
	raw, err := readBody(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	b, err := s.books.Create(c.Request.Context(), u.ID, raw)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"book": b})
}

func (s *Server) handleUpdateBook(c *gin.Context) {
	u, ok := s.owner(c)
	if !ok {
		return
	}
	// The body is only read once ownership is known, so a bad body for
	// someone else's book is still a 404.
	b, err := s.books.UpdateFrom(c.Request.Context(), u.ID, c.Param("id"), func() (map[string]any, error) {
		return readBody(c)
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": b})
}

func (s *Server) handleDeleteBook(c *gin.Context) {
	u, ok := s.owner(c)
	if !ok {
		return
	}
	if err := s.books.Delete(c.Request.Context(), u.ID, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSearchBooks(c *gin.Context) {
	if _, ok := s.owner(c); !ok {
		return
	}
	if s.lookup == nil {
		s.writeError(c, apperr.Unavailable("Book lookup is not configured.", errors.New("no lookup client")))
		return
	}
	res, err := s.lookup.Search(c.Request.Context(), c.Query("q"))
	switch {
	case errors.Is(err, lookup.ErrEmptyQuery):
		s.writeError(c, apperr.InvalidInput("Search query is required."))
		return
	case err != nil:
		s.writeError(c, apperr.Unavailable("Book lookup is unavailable.", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": res})
}
