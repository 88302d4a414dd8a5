package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"
	"homework_status_bot/internal/infra/config"
	idb "homework_status_bot/internal/infra/database"
	"homework_status_bot/internal/infra/lock"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/telegram"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

const commandRetryDelay = 30 * time.Second

type options struct {
	envFile     string
	once        bool
	telegramURL string // Bot API base URL, telebot's default when empty
	retryDelay  time.Duration
}

var opts = options{retryDelay: commandRetryDelay}

var rootCmd = &cobra.Command{
	Use:   "homework-bot",
	Short: "Watch Practicum homework review status and report changes to Telegram",
	Long: `homework-bot polls the Practicum homework status API and sends a Telegram
message whenever the review verdict of the latest homework changes.
Failures are reported to the same chat, once per distinct failure.

Configuration comes from the environment (and an optional dotenv file):
  PRACTICUM_TOKEN, TELEGRAM_TOKEN, TELEGRAM_CHAT_ID   required
  POLL_SCHEDULE                                       default "@every 600s"
  DATABASE_URL                                        optional notification journal

Examples:
  homework-bot                  # poll until interrupted
  homework-bot --once           # single cycle, then exit
  homework-bot --env-file prod.env`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.Flags().BoolVar(&opts.once, "once", false, "run a single poll cycle and exit")
	rootCmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to read before the environment")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logger.Log.WithError(err).Fatal("Bot terminated")
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			// Nothing can be polled or delivered without credentials.
			logger.Log.WithError(err).Fatal("Missing required environment variables, stopping")
		}
		return errors.Wrap(err, "could not load application configuration")
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment":   cfg.Environment,
		"log_level":     cfg.LogLevel,
		"poll_schedule": cfg.PollSchedule,
		"once":          opts.once,
	}).Info("Configuration loaded")

	instanceLock := lock.New(cfg.LockFile)
	if err := instanceLock.TryLock(); err != nil {
		return err
	}
	defer func() {
		if err := instanceLock.Unlock(); err != nil {
			mainLogger.WithError(err).Warn("Failed to release instance lock")
		}
	}()

	schedule, err := scheduler.ParseSchedule(cfg.PollSchedule)
	if err != nil {
		return err
	}
	listPolicy, err := homework.ParseListPolicy(cfg.ResponseListPolicy)
	if err != nil {
		return errors.Wrap(err, "invalid RESPONSE_LIST_POLICY")
	}

	// The journal stays an untyped nil interface when disabled.
	var journal notification.Journal
	if cfg.DatabaseURL != "" {
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			mainLogger.WithError(err).Warn("Notification journal disabled: database unavailable")
		} else {
			defer db.Close()
			if err := idb.EnsureSchema(ctx, db); err != nil {
				mainLogger.WithError(err).Warn("Notification journal disabled: schema setup failed")
			} else {
				journal = idb.NewPostgresJournalRepository(db)
				mainLogger.Info("Notification journal enabled")
			}
		}
	}

	// Offline skips getMe: a Telegram outage at startup must not stop polling.
	botLogger := logger.Component("telebot")
	bot, err := telebot.NewBot(telebot.Settings{
		URL:     opts.telegramURL,
		Token:   cfg.TelegramToken,
		Poller:  &telebot.LongPoller{Timeout: 10 * time.Second},
		Offline: true,
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := botLogger.WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telegram handler failed")
		},
	})
	if err != nil {
		return errors.Wrap(err, "could not create Telegram bot")
	}

	source := practicum.NewClient(practicum.ClientConfig{
		Endpoint: cfg.PracticumEndpoint,
		Token:    cfg.PracticumToken,
		Timeout:  cfg.HTTPTimeout,
	}, logger.Component("practicum"))

	notifier := app.NewNotificationService(
		telegram.NewTelebotAdapter(bot, cfg.TelegramSendInterval),
		journal,
		cfg.TelegramChatID,
		logger.Component("notification_service"),
	)
	poller := app.NewPollService(source, notifier, logger.Component("poll_service"), time.Now().Unix())
	poller.SetListPolicy(listPolicy)
	pollScheduler := scheduler.NewPollScheduler(poller, schedule, logger.Component("scheduler"))

	if opts.once {
		return pollScheduler.RunOnce(ctx)
	}

	var wg sync.WaitGroup
	if cfg.TelegramCommands {
		telegram.RegisterBotCommands(ctx, bot, cfg.TelegramChatID, poller, journal, logger.Component("telegram"))
		commandPoller := telegram.NewCommandPoller(bot, opts.retryDelay, logger.Component("telegram"))
		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		wg.Add(1)
		go func() {
			defer wg.Done()
			commandPoller.Run(ctx)
		}()
		mainLogger.Info("Chat commands enabled")
	}

	mainLogger.Info("Application setup complete, polling starts now")
	err = pollScheduler.Run(ctx)
	mainLogger.Info("Shutting down application...")
	wg.Wait()
	return err
}
