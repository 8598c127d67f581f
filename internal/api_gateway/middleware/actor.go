package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ActorIDHeader carries the household member performing the request
	ActorIDHeader = "X-User-ID"

	// ActorIDKey is the key used to store the actor in the context
	ActorIDKey = "actor_id"

	maxActorIDLength = 128
)

// RequireActor rejects requests without an actor header. Authentication happens upstream.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := strings.TrimSpace(c.GetHeader(ActorIDHeader))
		if actorID == "" || len(actorID) > maxActorIDLength {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid "+ActorIDHeader+" header")
			return
		}

		c.Set(ActorIDKey, actorID)
		c.Next()
	}
}

// GetActorID retrieves the actor from the gin context if present
func GetActorID(c *gin.Context) string {
	return c.GetString(ActorIDKey)
}
