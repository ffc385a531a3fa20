package auth

import "os"

// Config holds the routing options the guard consumes.
type Config interface {
	// GetLoginRoute is where unauthorized navigation is redirected.
	GetLoginRoute() string
	// GetDefaultRoute is the post-sign-in destination when nothing is
	// pending.
	GetDefaultRoute() string
}

// RouteConfig is the plain concrete Config.
type RouteConfig struct {
	LoginRoute   string
	DefaultRoute string
}

func (c RouteConfig) GetLoginRoute() string {
	if c.LoginRoute == "" {
		return "/login"
	}
	return c.LoginRoute
}

func (c RouteConfig) GetDefaultRoute() string {
	if c.DefaultRoute == "" {
		return "/"
	}
	return c.DefaultRoute
}

// ConfigFromEnv reads the route configuration from the environment,
// falling back to /login and /.
func ConfigFromEnv() RouteConfig {
	return RouteConfig{
		LoginRoute:   os.Getenv("GREENNEST_LOGIN_ROUTE"),
		DefaultRoute: os.Getenv("GREENNEST_DEFAULT_ROUTE"),
	}
}
