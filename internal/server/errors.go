package server

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"readsync/internal/apperr"
)

const msgBadJSON = "Request body must be a JSON object."

type errorBody struct {
	Message   string      `json:"message"`
	Code      apperr.Kind `json:"code"`
	RequestID string      `json:"requestId,omitempty"`
}

// writeError renders err as the JSON error envelope. Causes of internal and
// upstream failures are logged, never sent.
func (s *Server) writeError(c *gin.Context, err error) {
	kind, msg := apperr.Public(err)
	rid := c.GetString(ctxRequestIDKey)
	switch kind {
	case apperr.KindInternal, apperr.KindUnavailable:
		s.log.Error("request failed",
			"request_id", rid,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"kind", kind,
			"err", err,
		)
	case apperr.KindRateLimited:
		if s.limiter != nil {
			c.Header("Retry-After", strconv.Itoa(int(s.limiter.Window().Seconds())))
		}
	}
	c.JSON(apperr.HTTPStatus(kind), errorBody{Message: msg, Code: kind, RequestID: rid})
}

// readBody decodes the request body as a single JSON object. An empty body is
// an empty object; anything after the object is rejected.
func readBody(c *gin.Context) (map[string]any, error) {
	raw := map[string]any{}
	if c.Request.Body == nil {
		return raw, nil
	}
	dec := json.NewDecoder(io.LimitReader(c.Request.Body, 1<<20))
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, apperr.InvalidInput(msgBadJSON)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, apperr.InvalidInput(msgBadJSON)
	}
	if raw == nil {
		// a literal null
		return map[string]any{}, nil
	}
	return raw, nil
}

// field returns raw[key] when it is a string.
func field(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}
