package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Default CORS method and header lists advertised to browsers.
const (
	CORSAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	CORSAllowHeaders = "Content-Type, Accept, Authorization, X-Requested-With, X-XSRF-TOKEN"
)

// CORSConfig scopes the CORS middleware.
type CORSConfig struct {
	// AllowOrigins is the origin allow-list; "*" allows any origin.
	AllowOrigins []string
	// PathPrefixes limits the middleware to matching request paths. Empty means all paths.
	PathPrefixes []string
	// MaxAge is sent as Access-Control-Max-Age when positive.
	MaxAge int
}

// CORS attaches cross-origin headers to every response under the configured
// path prefixes and answers every OPTIONS request itself with an empty 200,
// so preflights never reach a route handler. A preflight that names the
// headers it wants gets them echoed back, so any request header is allowed.
//
// A listed origin is echoed back with credentials allowed. A wildcard entry
// answers "*" without credentials, since browsers reject that combination.
func CORS(cfg CORSConfig) fiber.Handler {
	allowed := make(map[string]struct{}, len(cfg.AllowOrigins))
	wildcard := false
	for _, o := range cfg.AllowOrigins {
		o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")
		if o == "*" {
			wildcard = true
			continue
		}
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	return func(c *fiber.Ctx) error {
		if !pathInScope(c.Path(), cfg.PathPrefixes) {
			return c.Next()
		}

		origin := c.Get(fiber.HeaderOrigin)
		c.Vary(fiber.HeaderOrigin)
		if origin != "" {
			if _, ok := allowed[strings.ToLower(origin)]; ok {
				c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
				c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
			} else if wildcard {
				c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
			}
		} else if wildcard {
			c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		}
		c.Set(fiber.HeaderAccessControlAllowMethods, CORSAllowMethods)
		c.Set(fiber.HeaderAccessControlAllowHeaders, CORSAllowHeaders)

		if c.Method() != fiber.MethodOptions {
			return c.Next()
		}

		if requested := c.Get(fiber.HeaderAccessControlRequestHeaders); requested != "" {
			c.Set(fiber.HeaderAccessControlAllowHeaders, requested)
			c.Vary(fiber.HeaderAccessControlRequestHeaders)
		}
		if maxAge != "" {
			c.Set(fiber.HeaderAccessControlMaxAge, maxAge)
		}
		// SendStatus would write the status text; preflights carry no body.
		c.Status(fiber.StatusOK)
		return nil
	}
}

func pathInScope(path string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) || strings.TrimRight(p, "/") == path {
			return true
		}
	}
	return false
}
