// Package web serves the storefront: public catalog pages, the auth forms,
// and the guarded member pages.
package web

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"

	auth "github.com/greennest/greennest-auth"
	"github.com/greennest/greennest-auth/catalog"
)

type ControllerRoutes struct {
	Home          string
	Plants        string
	Plant         string
	Book          string
	Login         string
	LoginGoogle   string
	Logout        string
	Register      string
	PasswordReset string
	Profile       string
}

type ControllerViews struct {
	Home          string
	Plants        string
	Plant         string
	Login         string
	Register      string
	PasswordReset string
	Profile       string
	Loading       string
}

type Controller struct {
	Debug  bool
	Logger auth.Logger
	Routes *ControllerRoutes
	Views  *ControllerViews

	actions  *auth.Actions
	store    *auth.SessionStore
	guard    *auth.RouteGuard
	catalog  *catalog.Catalog
	bookings *catalog.Bookings
}

type ControllerOption func(*Controller) *Controller

func WithControllerLogger(logger auth.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithDebug(debug bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.Debug = debug
		return c
	}
}

func NewController(actions *auth.Actions, store *auth.SessionStore, guard *auth.RouteGuard, shop *catalog.Catalog, opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger:   auth.DefaultLogger(),
		actions:  actions,
		store:    store,
		guard:    guard,
		catalog:  shop,
		bookings: catalog.NewBookings(shop),
		Routes: &ControllerRoutes{
			Home:          "/",
			Plants:        "/plants",
			Plant:         "/plant/:id",
			Book:          "/plant/:id/book",
			Login:         "/login",
			LoginGoogle:   "/login/google",
			Logout:        "/logout",
			Register:      "/register",
			PasswordReset: "/password-reset",
			Profile:       "/profile",
		},
		Views: &ControllerViews{
			Home:          "home",
			Plants:        "plants",
			Plant:         "plant",
			Login:         "login",
			Register:      "register",
			PasswordReset: "password_reset",
			Profile:       "profile",
			Loading:       "loading",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.actions == nil {
		panic("Missing Actions in web controller...")
	}

	if c.store == nil {
		panic("Missing SessionStore in web controller...")
	}

	if c.guard == nil {
		panic("Missing RouteGuard in web controller...")
	}

	if c.catalog == nil {
		panic("Missing Catalog in web controller...")
	}

	return c
}

func RegisterRoutes[T any](app router.Router[T], controller *Controller) {
	c := controller
	guarded := c.Guarded()

	app.Get(c.Routes.Home, c.HomeShow).SetName("home.get")
	app.Get(c.Routes.Plants, c.PlantsShow).SetName("plants.get")

	app.Get(c.Routes.Plant, guarded(c.PlantShow)).SetName("plant.get")
	app.Post(c.Routes.Book, guarded(c.BookConsultation)).SetName("plant-book.post")

	app.Get(c.Routes.Login, c.LoginShow).SetName("sign-in.get")
	app.Post(c.Routes.Login, c.LoginPost).SetName("sign-in.post")
	app.Get(c.Routes.LoginGoogle, c.LoginFederated).SetName("sign-in-google.get")

	app.Get(c.Routes.Logout, c.LogOut).SetName("sign-out.get")

	app.Get(c.Routes.Register, c.RegistrationShow).SetName("register.get")
	app.Post(c.Routes.Register, c.RegistrationCreate).SetName("register.post")

	app.Get(c.Routes.PasswordReset, c.PasswordResetShow).SetName("pwd-reset.get")
	app.Post(c.Routes.PasswordReset, c.PasswordResetPost).SetName("pwd-reset.post")

	app.Get(c.Routes.Profile, guarded(c.ProfileShow)).SetName("profile.get")
	app.Post(c.Routes.Profile, guarded(c.ProfileUpdate)).SetName("profile.post")
}

func (c *Controller) HomeShow(ctx router.Context) error {
	return ctx.Render(c.Views.Home, router.ViewContext{
		"identity": c.store.Identity(),
		"plants":   c.catalog.Featured(6),
	})
}

func (c *Controller) PlantsShow(ctx router.Context) error {
	return ctx.Render(c.Views.Plants, router.ViewContext{
		"identity":   c.store.Identity(),
		"plants":     c.catalog.List(),
		"categories": c.catalog.Categories(),
	})
}

func (c *Controller) PlantShow(ctx router.Context) error {
	id := ctx.ParamsInt("id", 0)

	plant, err := c.catalog.Get(id)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).Render("errors/404", router.ViewContext{
			"message": "Plant not found!",
		})
	}

	return ctx.Render(c.Views.Plant, router.ViewContext{
		"identity": c.store.Identity(),
		"plant":    plant,
	})
}

func (c *Controller) BookConsultation(ctx router.Context) error {
	id := ctx.ParamsInt("id", 0)
	plantPath := fmt.Sprintf("/plant/%d", id)

	payload := new(catalog.BookingRequest)
	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("booking parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Redirect(plantPath, fiber.StatusSeeOther)
	}
	payload.PlantID = id

	booking, err := c.bookings.Book(*payload)
	if err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message": auth.NormalizeReason(err),
		}).Redirect(plantPath, fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": booking.Confirmation(),
	}).Redirect(plantPath, fiber.StatusSeeOther)
}

func (c *Controller) LoginShow(ctx router.Context) error {
	return ctx.Render(c.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

func (c *Controller) LoginPost(ctx router.Context) error {
	payload := new(auth.SignInMessage)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("login parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(c.Views.Login, router.ViewContext{
			"record": payload,
		})
	}

	if c.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	out := c.actions.SignIn(ctx.Context(), *payload)
	if !out.OK {
		return flash.WithError(ctx, router.ViewContext{
			"error_message": out.Reason,
		}).Render(c.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": formatValidationErrors(out.Err),
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": out.Message,
	}).Redirect(c.guard.ResumeOrDefault(), fiber.StatusSeeOther)
}

func (c *Controller) LoginFederated(ctx router.Context) error {
	provider := ctx.Query("provider", auth.DefaultFederatedProvider)

	out := c.actions.SignInFederated(ctx.Context(), auth.FederatedSignInMessage{
		Provider: provider,
	})
	if !out.OK {
		return flash.WithError(ctx, router.ViewContext{
			"error_message": out.Reason,
		}).Render(c.Views.Login, router.ViewContext{
			"record": nil,
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": out.Message,
	}).Redirect(c.guard.ResumeOrDefault(), fiber.StatusSeeOther)
}

func (c *Controller) LogOut(ctx router.Context) error {
	out := c.actions.SignOut(ctx.Context())
	if !out.OK {
		return flash.WithError(ctx, router.ViewContext{
			"error_message": out.Reason,
		}).Redirect("/", fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": out.Message,
	}).Redirect("/", fiber.StatusSeeOther)
}

func (c *Controller) RegistrationShow(ctx router.Context) error {
	return ctx.Render(c.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": auth.RegisterMessage{},
	})
}

func (c *Controller) RegistrationCreate(ctx router.Context) error {
	payload := new(auth.RegisterMessage)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("register parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(c.Views.Register, router.ViewContext{
			"record": payload,
		})
	}

	out := c.actions.Register(ctx.Context(), *payload)

	if out.PartialFailure() {
		// The account exists and the session is live; only the profile
		// write failed. Surface the warning and move on.
		return flash.WithError(ctx, router.ViewContext{
			"error_message": out.Reason,
		}).Redirect(c.guard.ResumeOrDefault(), fiber.StatusSeeOther)
	}

	if !out.OK {
		return flash.WithError(ctx, router.ViewContext{
			"error_message": out.Reason,
		}).Render(c.Views.Register, router.ViewContext{
			"record":     payload,
			"validation": formatValidationErrors(out.Err),
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": out.Message,
	}).Redirect(c.guard.ResumeOrDefault(), fiber.StatusSeeOther)
}

const (
	stageKey  = "stage"
	emailKey  = "email"
	stageInit = "show-reset"
	stageSent = "email-sent"
)

func (c *Controller) PasswordResetShow(ctx router.Context) error {
	return ctx.Render(c.Views.PasswordReset, router.ViewContext{
		"errors": nil,
		"reset": map[string]string{
			stageKey: stageInit,
		},
	})
}

func (c *Controller) PasswordResetPost(ctx router.Context) error {
	payload := new(auth.PasswordResetMessage)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("password reset parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(c.Views.PasswordReset, router.ViewContext{
			"record": payload,
		})
	}

	out := c.actions.RequestPasswordReset(ctx.Context(), *payload)
	if !out.OK {
		return flash.WithError(ctx, router.ViewContext{
			"error_message": out.Reason,
		}).Render(c.Views.PasswordReset, router.ViewContext{
			"record":     payload,
			"validation": formatValidationErrors(out.Err),
			"reset": map[string]string{
				stageKey: stageInit,
			},
		})
	}

	if c.Debug {
		fmt.Println("================")
		fmt.Println(print.MaybePrettyJSON(out))
		fmt.Println("================")
	}

	return ctx.Render(c.Views.PasswordReset, router.ViewContext{
		"errors": nil,
		"reset": map[string]string{
			stageKey: stageSent,
			emailKey: payload.Email,
		},
	})
}

func (c *Controller) ProfileShow(ctx router.Context) error {
	return ctx.Render(c.Views.Profile, router.ViewContext{
		"identity": c.store.Identity(),
		"errors":   map[string]string{},
	})
}

func (c *Controller) ProfileUpdate(ctx router.Context) error {
	payload := new(auth.UpdateProfileMessage)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("profile parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(c.Views.Profile, router.ViewContext{
			"identity": c.store.Identity(),
		})
	}

	out := c.actions.UpdateProfile(ctx.Context(), *payload)
	if !out.OK {
		return flash.WithError(ctx, router.ViewContext{
			"error_message": out.Reason,
		}).Render(c.Views.Profile, router.ViewContext{
			"identity":   c.store.Identity(),
			"record":     payload,
			"validation": formatValidationErrors(out.Err),
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": out.Message,
	}).Redirect(c.Routes.Profile, fiber.StatusSeeOther)
}

// formatValidationErrors flattens a validation failure into a field=>message
// map for the form templates.
func formatValidationErrors(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, fieldErr := range verrs {
			out[field] = fieldErr.Error()
		}
		return out
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Source != nil {
		var nested validation.Errors
		if errors.As(rich.Source, &nested) {
			for field, fieldErr := range nested {
				out[field] = fieldErr.Error()
			}
			return out
		}
	}

	out["error"] = auth.NormalizeReason(err)
	return out
}
