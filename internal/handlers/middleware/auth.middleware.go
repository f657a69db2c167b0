package middleware

import (
	"crypto/subtle"
	"strings"
	"time"

	"stayops/internal/models"
	"stayops/internal/services"
	"stayops/internal/timewindow"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
)

const (
	// ScopeKeyFiber holds the resolved token scope for scoped callers.
	ScopeKeyFiber string = "TokenScope"
	// AdminKeyFiber is set true when the caller presented the admin key.
	AdminKeyFiber string = "IsAdmin"
)

// RequireToken accepts either the admin API key or a live scoped token as
// a bearer credential. Admin callers get no scope; scoped callers get
// their TokenScope stored for ownership checks downstream. All failures
// look the same to the caller.
//
// A scoped token also stops working once its civil date has fully elapsed.
// The row stays intact; the credential just no longer opens anything.
func (m *Middleware) RequireToken(tokenService services.TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.New("middleware").TraceFromContext(c.Context()).Function("RequireToken")

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			return unauthorized(c)
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			log.Info("invalid authorization header format")
			return unauthorized(c)
		}

		token := tokenParts[1]
		if token == "" {
			log.Info("empty token")
			return unauthorized(c)
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(m.Config.AdminAPIKey)) == 1 {
			c.Locals(AdminKeyFiber, true)
			return c.Next()
		}

		scope, err := tokenService.Verify(c.UserContext(), token)
		if err != nil {
			log.Info("token verification failed")
			return unauthorized(c)
		}

		// Date keys sort chronologically, so a plain string compare is the
		// elapsed check. A key equal to or after today is still in scope.
		today := timewindow.DateKey(time.Now(), timewindow.Location(m.Config.CivilOffsetMinutes))
		if scope.DateKey < today {
			log.Info("token date key elapsed",
				"dateKey", scope.DateKey, "today", today)
			return unauthorized(c)
		}

		c.Locals(ScopeKeyFiber, scope)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Invalid credentials",
	})
}

// GetScope extracts the caller's token scope. Nil means the caller is an
// admin, or the route skipped authentication.
func GetScope(c *fiber.Ctx) *models.TokenScope {
	scope, ok := c.Locals(ScopeKeyFiber).(*models.TokenScope)
	if !ok {
		return nil
	}
	return scope
}

// IsAdmin reports whether the caller presented the admin key.
func IsAdmin(c *fiber.Ctx) bool {
	isAdmin, ok := c.Locals(AdminKeyFiber).(bool)
	return ok && isAdmin
}
