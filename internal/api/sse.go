package api

import (
	"github.com/gin-gonic/gin"

	"wastetofeast/internal/stream"
)

// sseSink writes stream events as server-sent events and flushes after each one.
// Only a failed write is reported; the streamer watches the request context itself.
type sseSink struct {
	c *gin.Context
}

func newSSESink(c *gin.Context) *sseSink {
	return &sseSink{c: c}
}

func (s *sseSink) Send(e stream.Event) error {
	s.c.SSEvent("message", e)
	s.c.Writer.Flush()
	if last := s.c.Errors.Last(); last != nil {
		return last.Err
	}
	return nil
}
