package web

import (
	"net/http"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"

	auth "github.com/greennest/greennest-auth"
)

// Guarded wraps a handler behind the route guard. While the session is
// still resolving it renders the loading view instead of deciding; once
// resolved it either passes through or redirects to the sign-in route,
// leaving the requested destination pending so a later sign-in can resume
// it.
func (c *Controller) Guarded() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			decision := c.guard.Decide(ctx.Path())

			switch decision.State {
			case auth.GuardAuthorized:
				return next(ctx)

			case auth.GuardResolving:
				return ctx.Render(c.Views.Loading, router.ViewContext{
					"path": decision.Path,
				})

			default:
				statusCode := http.StatusSeeOther
				if ctx.Method() == string(router.GET) {
					statusCode = http.StatusFound
				}

				return flash.WithError(ctx, router.ViewContext{
					"system_message": "You must log in to view this page",
				}).Redirect(decision.RedirectTo, statusCode)
			}
		}
	}
}
