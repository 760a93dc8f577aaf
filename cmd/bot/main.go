package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/KirkDiggler/conferencebot/internal/callback"
	"github.com/KirkDiggler/conferencebot/internal/common/clock"
	"github.com/KirkDiggler/conferencebot/internal/common/logger"
	"github.com/KirkDiggler/conferencebot/internal/common/uuid"
	"github.com/KirkDiggler/conferencebot/internal/config"
	"github.com/KirkDiggler/conferencebot/internal/handlers/discord"
	"github.com/KirkDiggler/conferencebot/internal/handlers/telegram"
	"github.com/KirkDiggler/conferencebot/internal/messenger"
	"github.com/KirkDiggler/conferencebot/internal/repositories/admin_grant"
	"github.com/KirkDiggler/conferencebot/internal/repositories/attendance"
	"github.com/KirkDiggler/conferencebot/internal/repositories/attendee"
	"github.com/KirkDiggler/conferencebot/internal/repositories/delivery_ledger"
	"github.com/KirkDiggler/conferencebot/internal/repositories/feedback"
	"github.com/KirkDiggler/conferencebot/internal/repositories/notice"
	rsvpRepo "github.com/KirkDiggler/conferencebot/internal/repositories/rsvp"
	"github.com/KirkDiggler/conferencebot/internal/repositories/session"
	"github.com/KirkDiggler/conferencebot/internal/repositories/template"
	"github.com/KirkDiggler/conferencebot/internal/services/admin"
	"github.com/KirkDiggler/conferencebot/internal/services/dispatch"
	"github.com/KirkDiggler/conferencebot/internal/services/escalation"
	"github.com/KirkDiggler/conferencebot/internal/services/messaging"
	"github.com/KirkDiggler/conferencebot/internal/services/registration"
	rsvpService "github.com/KirkDiggler/conferencebot/internal/services/rsvp"
	"github.com/KirkDiggler/conferencebot/internal/services/schedule"
	"github.com/KirkDiggler/conferencebot/internal/wizard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logger.New(&logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	// Test Redis connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
	}

	clk := clock.New(loc)
	ids := uuid.New()

	// Initialize repositories
	sessionRepo, err := session.NewRedis(&session.Config{RedisClient: redisClient})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session repository")
	}

	attendeeRepo, err := attendee.NewRedis(&attendee.Config{RedisClient: redisClient})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create attendee repository")
	}

	rsvps, err := rsvpRepo.NewRedis(&rsvpRepo.Config{RedisClient: redisClient})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create rsvp repository")
	}

	attendanceRepo, err := attendance.NewRedis(&attendance.Config{RedisClient: redisClient})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create attendance repository")
	}

	feedbackRepo, err := feedback.NewRedis(&feedback.Config{RedisClient: redisClient})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create feedback repository")
	}

	ledgerRepo, err := delivery_ledger.NewRedis(&delivery_ledger.Config{
		RedisClient:   redisClient,
		UUIDGenerator: ids,
		Clock:         clk,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create delivery ledger repository")
	}

	noticeRepo, err := notice.NewRedis(&notice.Config{
		RedisClient:   redisClient,
		UUIDGenerator: ids,
		Clock:         clk,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create notice repository")
	}

	grantRepo, err := admin_grant.NewRedis(&admin_grant.Config{RedisClient: redisClient})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin grant repository")
	}

	templateRepo, err := template.NewRedis(&template.Config{RedisClient: redisClient})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create template repository")
	}

	// Shared services

	msgs, err := messaging.NewService(&messaging.ServiceConfig{
		TemplateRepo: templateRepo,
		Logger:       logger.Component(log, "messaging"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create messaging service")
	}

	codec, err := callback.New(&callback.Config{
		Secret: cfg.CallbackSecret,
		TTL:    cfg.CallbackTTL,
		Clock:  clk,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create callback codec")
	}

	evaluator, err := schedule.New(&schedule.Config{
		Tolerance:     cfg.WindowTolerance,
		TickInterval:  cfg.TickInterval,
		InviteLead:    cfg.InviteLead,
		FeedbackDelay: cfg.FeedbackDelay,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid notification windows")
	}

	// Telegram is the attendee transport
	if err := telegram.SetLogger(log); err != nil {
		log.Warn().Err(err).Msg("Failed to install telegram logger")
	}

	tgAPI, err := telegram.NewAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}

	tgMessenger, err := telegram.NewMessenger(tgAPI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram messenger")
	}

	dispatcher, err := dispatch.NewService(&dispatch.ServiceConfig{
		SessionRepo:    sessionRepo,
		AttendeeRepo:   attendeeRepo,
		RSVPRepo:       rsvps,
		AttendanceRepo: attendanceRepo,
		LedgerRepo:     ledgerRepo,
		NoticeRepo:     noticeRepo,
		Evaluator:      evaluator,
		Messenger:      tgMessenger,
		Messaging:      msgs,
		Codec:          codec,
		Clock:          clk,
		Limiter:        rate.NewLimiter(rate.Limit(cfg.SendRate), 1),
		SendTimeout:    cfg.SendTimeout,
		Location:       loc,
		Logger:         logger.Component(log, "dispatch"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create dispatcher")
	}

	registrationSvc, err := registration.NewService(&registration.Config{
		AttendeeRepo:   attendeeRepo,
		AttendanceRepo: attendanceRepo,
		SessionRepo:    sessionRepo,
		LedgerRepo:     ledgerRepo,
		Invites:        dispatcher,
		Clock:          clk,
		Logger:         logger.Component(log, "registration"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create registration service")
	}

	rsvpSvc, err := rsvpService.NewService(&rsvpService.Config{
		SessionRepo:    sessionRepo,
		AttendeeRepo:   attendeeRepo,
		RSVPRepo:       rsvps,
		AttendanceRepo: attendanceRepo,
		LedgerRepo:     ledgerRepo,
		Clock:          clk,
		Logger:         logger.Component(log, "rsvp"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create rsvp service")
	}

	adminSvc, err := admin.NewService(&admin.Config{
		Password:      cfg.AdminPassword,
		GrantTTL:      cfg.AdminGrantTTL,
		Location:      loc,
		GrantRepo:     grantRepo,
		SessionRepo:   sessionRepo,
		LedgerRepo:    ledgerRepo,
		Hooks:         dispatcher,
		Clock:         clk,
		UUIDGenerator: ids,
		Logger:        logger.Component(log, "admin"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin service")
	}

	types, err := cfg.ParseSessionTypes()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid session types")
	}
	if err := adminSvc.SeedSessionTypes(ctx, types); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed session types")
	}

	// Support side: a Telegram chat or a Discord channel
	var support messenger.Messenger = tgMessenger
	supportRecipient := cfg.SupportChatID

	var discordBot *discord.Bot

	if cfg.SupportTransport == config.SupportTransportDiscord {
		discordBot, err = discord.New(&discord.Config{
			Token:     cfg.DiscordToken,
			ChannelID: cfg.DiscordSupportChannelID,
			Messaging: msgs,
			Codec:     codec,
			Logger:    logger.Component(log, "discord"),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Discord bot")
		}
		support = discordBot
		supportRecipient = discordBot.ChannelID()
	}

	if supportRecipient == "" {
		log.Warn().Msg("No support recipient configured, low ratings will not be escalated")
	}

	escalationSvc, err := escalation.NewService(&escalation.Config{
		Threshold:        cfg.EscalationThreshold,
		SupportRecipient: supportRecipient,
		SendTimeout:      cfg.SendTimeout,
		FeedbackRepo:     feedbackRepo,
		AttendeeRepo:     attendeeRepo,
		SessionRepo:      sessionRepo,
		LedgerRepo:       ledgerRepo,
		Support:          support,
		Messaging:        msgs,
		Codec:            codec,
		Clock:            clk,
		Logger:           logger.Component(log, "escalation"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create escalation service")
	}

	if discordBot != nil {
		discordBot.SetEscalation(escalationSvc)
		if err := discordBot.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start Discord bot")
		}
	}

	bot, err := telegram.New(&telegram.Config{
		API:          tgAPI,
		Messenger:    tgMessenger,
		Messaging:    msgs,
		Codec:        codec,
		Wizards:      wizard.NewRegistry(),
		Location:     loc,
		Registration: registrationSvc,
		RSVP:         rsvpSvc,
		Escalation:   escalationSvc,
		Admin:        adminSvc,
		Logger:       logger.Component(log, "telegram"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram bot")
	}

	// Single-flight tick: a slow pass skips the next run instead of overlapping
	tickLog := logger.Component(log, "tick")
	scheduler := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger.NewCronLogger(tickLog)),
		cron.WithChain(
			cron.Recover(logger.NewCronLogger(tickLog)),
			cron.SkipIfStillRunning(logger.NewCronLogger(tickLog)),
		),
	)

	if _, err := scheduler.AddFunc("@every "+evaluator.TickInterval().String(), func() {
		out, err := dispatcher.Tick(ctx)
		if err != nil {
			tickLog.Error().Err(err).Msg("tick failed")
			return
		}
		if out.Deadlines > 0 {
			tickLog.Info().
				Int("deadlines", out.Deadlines).
				Int("sent", out.Sent).
				Int("failed", out.Failed).
				Int("retry", out.Retry).
				Int("pruned", out.Pruned).
				Msg("tick finished")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule tick")
	}
	scheduler.Start()

	log.Info().
		Str("timezone", loc.String()).
		Dur("tick", evaluator.TickInterval()).
		Str("support", cfg.SupportTransport).
		Msg("Bot is now running. Press CTRL-C to exit.")

	// Run blocks until the signal context ends
	if err := bot.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Telegram bot stopped")
	}

	<-scheduler.Stop().Done()

	if discordBot != nil {
		if err := discordBot.Stop(); err != nil {
			log.Error().Err(err).Msg("Error stopping Discord bot")
		}
	}

	log.Info().Msg("Bot has been shut down")
}
