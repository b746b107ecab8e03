package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const SessionCookieName = "docchat_session"

// BrowserSessionKey is the gin context key holding the browser's uuid.UUID.
const BrowserSessionKey = "browserSession"

// SessionMiddleware identifies the browser with a cookie. The cookie lives
// only as long as the browser session; the workspace behind it is in memory.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookieName)
		var browserID uuid.UUID

		if err == http.ErrNoCookie {
			browserID = uuid.New()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, browserID.String(), 0, "/", "", false, true)
		} else if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse session cookie"})
			return
		} else {
			browserID, err = uuid.Parse(cookie)
			if err != nil {
				// Replace a tampered or stale cookie instead of locking the browser out.
				browserID = uuid.New()
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(SessionCookieName, browserID.String(), 0, "/", "", false, true)
			}
		}

		c.Set(BrowserSessionKey, browserID)
		c.Next()
	}
}

// BrowserSession returns the id set by SessionMiddleware.
func BrowserSession(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(BrowserSessionKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
