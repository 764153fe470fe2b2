package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/bbdeals/wacrm/internal/aigateway"
	"github.com/bbdeals/wacrm/internal/config"
	"github.com/bbdeals/wacrm/internal/contacts"
	"github.com/bbdeals/wacrm/internal/conversation"
	"github.com/bbdeals/wacrm/internal/db"
	dbsqlc "github.com/bbdeals/wacrm/internal/db/sqlc"
	"github.com/bbdeals/wacrm/internal/handlers"
	"github.com/bbdeals/wacrm/internal/logger"
	"github.com/bbdeals/wacrm/internal/maintenance"
	"github.com/bbdeals/wacrm/internal/message"
	"github.com/bbdeals/wacrm/internal/message/event"
	"github.com/bbdeals/wacrm/internal/outbound"
	"github.com/bbdeals/wacrm/internal/server"
	"github.com/bbdeals/wacrm/internal/version"
	"github.com/bbdeals/wacrm/internal/webhook"
	"github.com/bbdeals/wacrm/internal/whatsapp"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook receiver and admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			app := newApp(cfg)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func newApp(cfg config.Config) *fx.App {
	return fx.New(
		fx.Supply(cfg),
		fx.Provide(
			provideLogger,

			provideDBConn,
			provideDBQueries,

			fx.Annotate(event.NewHub, fx.As(new(event.Publisher)), fx.As(new(event.Subscriber))),

			contacts.NewService,
			conversation.NewService,
			provideMessageService,
			provideWhatsAppClient,
			provideAIGatewayClient,
			provideReconciler,
			outbound.NewService,
			provideArchiver,

			provideServerHandler(provideHealthHandler),
			provideServerHandler(provideWebhookHandler),
			provideServerHandler(provideContactsHandler),
			provideServerHandler(provideConversationsHandler),
			provideServerHandler(provideMessageHandler),

			provideServer,
		),
		fx.Invoke(
			startArchiver,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
}

func provideLogger() *slog.Logger {
	return logger.L
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *dbsqlc.Queries {
	return dbsqlc.New(conn)
}

func provideMessageService(log *slog.Logger, conn *pgxpool.Pool, queries *dbsqlc.Queries, publisher event.Publisher) *message.DBService {
	return message.NewService(log, conn, queries, publisher)
}

func provideWhatsAppClient(log *slog.Logger, cfg config.Config) outbound.Sender {
	return whatsapp.NewClient(log, cfg.WhatsApp)
}

func provideAIGatewayClient(log *slog.Logger, cfg config.Config) *aigateway.Client {
	return aigateway.NewClient(log, cfg.AIGateway)
}

func provideReconciler(
	log *slog.Logger,
	cfg config.Config,
	contactService *contacts.Service,
	conversationService *conversation.Service,
	messageService *message.DBService,
	ai *aigateway.Client,
) *webhook.Reconciler {
	var trigger webhook.AITrigger
	if ai.Enabled() {
		trigger = ai
	} else {
		log.Warn("ai gateway url not configured, mention triggers disabled")
	}
	return webhook.NewReconciler(log, contactService, conversationService, messageService, trigger, webhook.Options{
		MentionMarker:  cfg.Webhook.MentionMarker,
		DedupWindow:    cfg.Webhook.Window(),
		TriggerTimeout: cfg.AIGateway.Timeout(),
	})
}

func provideArchiver(log *slog.Logger, cfg config.Config, conversationService *conversation.Service) *maintenance.Archiver {
	return maintenance.NewArchiver(log, conversationService, cfg.Maintenance)
}

func provideHealthHandler(log *slog.Logger, conn *pgxpool.Pool) *handlers.PingHandler {
	return handlers.NewPingHandler(log, conn)
}

func provideWebhookHandler(log *slog.Logger, cfg config.Config, reconciler *webhook.Reconciler) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, reconciler, cfg.Webhook)
}

func provideContactsHandler(log *slog.Logger, service *contacts.Service) *handlers.ContactsHandler {
	return handlers.NewContactsHandler(log, service)
}

func provideConversationsHandler(log *slog.Logger, service *conversation.Service) *handlers.ConversationsHandler {
	return handlers.NewConversationsHandler(log, service)
}

func provideMessageHandler(
	log *slog.Logger,
	conversationService *conversation.Service,
	messageService *message.DBService,
	outboundService *outbound.Service,
	events event.Subscriber,
) *handlers.MessageHandler {
	return handlers.NewMessageHandler(log, conversationService, messageService, outboundService, events)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) (*server.Server, error) {
	if strings.TrimSpace(params.Config.Auth.JWTSecret) == "" {
		return nil, errors.New("auth.jwt_secret is required to serve the admin API")
	}
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers...), nil
}

func startArchiver(lc fx.Lifecycle, archiver *maintenance.Archiver) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return archiver.Start()
		},
		OnStop: func(ctx context.Context) error {
			return archiver.Stop(ctx)
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	reconciler *webhook.Reconciler,
	shutdowner fx.Shutdowner,
	cfg config.Config,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting crm", slog.String("version", version.GetInfo()), slog.String("addr", cfg.Server.Addr))
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			reconciler.Wait()
			return nil
		},
	})
}
