package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	actorHeader  = "X-Actor"
	actorContext = "actor"
)

// Actor stores the editing user's identifier from the X-Actor header on the
// request context. Whether a blank actor is acceptable is decided per
// operation: reads allow it, writes reject it.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorContext, strings.TrimSpace(c.GetHeader(actorHeader)))
		c.Next()
	}
}

// ActorValue returns the actor identifier stored on the context, possibly
// empty.
func ActorValue(c *gin.Context) string {
	if v, exists := c.Get(actorContext); exists {
		if actor, ok := v.(string); ok {
			return actor
		}
	}
	return ""
}
