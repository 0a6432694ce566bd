package middleware

import (
	"time"

	"etalase/internal/session"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "etalase_session"

// SessionIDKey is the Fiber locals key holding the session id.
const SessionIDKey = "session_id"

// Session is a Fiber middleware that resolves the browser session from the
// signed cookie, starting a new one when the cookie is missing or invalid.
func Session(issuer *session.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := c.Cookies(SessionCookie); token != "" {
			sid, err := issuer.Parse(token)
			if err == nil {
				c.Locals(SessionIDKey, sid)
				return c.Next()
			}
			log.WithError(err).Debug("Discarding session cookie")
		}

		sid := session.NewSessionID()
		token, err := issuer.Issue(sid)
		if err != nil {
			log.WithError(err).Error("Failed to issue session token")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not start session",
			})
		}

		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(issuer.TTL()),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Locals(SessionIDKey, sid)
		return c.Next()
	}
}

// SessionID returns the session id resolved by Session.
func SessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(SessionIDKey).(string)
	return sid
}
