package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"readsync/internal/apperr"
)

// mountStatic serves the frontend from staticDir. Unknown paths outside /api
// fall back to index.html; unknown /api paths get a JSON 404.
func (s *Server) mountStatic(r *gin.Engine) {
	r.NoRoute(s.serveFrontend)
	if s.staticDir == "" {
		return
	}
	page := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) { c.File(filepath.Join(s.staticDir, name)) }
	}
	r.GET("/books", page("books.html"))
	r.GET("/add-book", page("add-book.html"))
	for _, p := range []string{"/dashboard", "/dashboard.html"} {
		r.GET(p, func(c *gin.Context) { c.Redirect(http.StatusFound, "/books") })
	}
}

func (s *Server) serveFrontend(c *gin.Context) {
	p := c.Request.URL.Path
	isAPI := p == "/api" || strings.HasPrefix(p, "/api/")
	readOnly := c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead
	if isAPI || !readOnly || s.staticDir == "" {
		s.writeError(c, apperr.NotFound("Not found."))
		return
	}

	// path.Clean on a rooted path cannot climb above staticDir.
	full := filepath.Join(s.staticDir, filepath.FromSlash(path.Clean("/"+p)))
	if info, err := os.Stat(full); err == nil && !info.IsDir() {
		c.File(full)
		return
	}
	c.File(filepath.Join(s.staticDir, "index.html"))
}
