package main

import (
	"context"
	"database/sql"
	"embed"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/greennest/greennest-auth"
	"github.com/greennest/greennest-auth/catalog"
	"github.com/greennest/greennest-auth/gateway/identitykit"
	"github.com/greennest/greennest-auth/gateway/local"
	"github.com/greennest/greennest-auth/social"
	"github.com/greennest/greennest-auth/social/google"
	"github.com/greennest/greennest-auth/web"
)

//go:embed views
var viewsFS embed.FS

type App struct {
	db      *bun.DB
	gateway auth.Gateway
	store   *auth.SessionStore
	actions *auth.Actions
	guard   *auth.RouteGuard
	srv     router.Server[*fiber.App]
	logger  auth.Logger
}

func main() {
	ctx := context.Background()

	app := &App{logger: auth.DefaultLogger()}

	if err := WithGateway(ctx, app); err != nil {
		panic(err)
	}

	if err := WithAuth(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	addr := os.Getenv("GREENNEST_ADDR")
	if addr == "" {
		addr = ":8573"
	}

	app.srv.Serve(addr)

	WaitExitSignal()

	app.store.Stop()
}

// WithGateway selects the identity backend: the hosted Identity Toolkit
// when an API key is configured, the local SQL gateway otherwise.
func WithGateway(ctx context.Context, app *App) error {
	providers := federatedProviders()

	if apiKey := os.Getenv("GREENNEST_IDENTITY_API_KEY"); apiKey != "" {
		app.gateway = identitykit.New(identitykit.Config{
			APIKey:    apiKey,
			Logger:    app.logger,
			Providers: providers,
		})
		return nil
	}

	dsn := os.Getenv("GREENNEST_DSN")
	if dsn == "" {
		dsn = "file:greennest.db?cache=shared"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return err
	}
	app.db = bun.NewDB(sqldb, sqlitedialect.New())

	gw, err := local.New(local.Config{
		DB:        app.db,
		Logger:    app.logger,
		Providers: providers,
	})
	if err != nil {
		return err
	}

	if err := gw.Init(ctx); err != nil {
		return err
	}

	app.gateway = gw
	return nil
}

func federatedProviders() []social.Provider {
	clientID := os.Getenv("GREENNEST_GOOGLE_CLIENT_ID")
	if clientID == "" {
		return nil
	}

	return []social.Provider{
		google.New(google.Config{
			ClientID:     clientID,
			ClientSecret: os.Getenv("GREENNEST_GOOGLE_CLIENT_SECRET"),
			CallbackURL:  os.Getenv("GREENNEST_GOOGLE_CALLBACK_URL"),
		}),
	}
}

func WithAuth(ctx context.Context, app *App) error {
	notifier := auth.LogNotifier{Logger: app.logger}

	app.store = auth.NewSessionStore(auth.WithStoreLogger(app.logger))
	if err := app.store.Start(app.gateway); err != nil {
		return err
	}

	app.actions = auth.NewActions(app.gateway,
		auth.WithNotifier(notifier),
		auth.WithActionsLogger(app.logger),
	)

	app.guard = auth.NewRouteGuard(app.store, auth.ConfigFromEnv(),
		auth.WithGuardNotifier(notifier),
		auth.WithGuardLogger(app.logger),
	)

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	engine := django.NewPathForwardingFileSystem(http.FS(viewsFS), "/views", ".html")

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	shop, err := catalog.New()
	if err != nil {
		return err
	}

	controller := web.NewController(app.actions, app.store, app.guard, shop,
		web.WithControllerLogger(app.logger),
		web.WithDebug(os.Getenv("GREENNEST_DEBUG") != ""),
	)

	web.RegisterRoutes(srv.Router(), controller)

	app.srv = srv
	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
