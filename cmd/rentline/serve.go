package main

import (
	"fmt"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhuravin/rentline/internal/bot"
	"github.com/zhuravin/rentline/internal/chat"
	"github.com/zhuravin/rentline/internal/chat/discord"
	"github.com/zhuravin/rentline/internal/chat/slack"
	"github.com/zhuravin/rentline/internal/config"
	"github.com/zhuravin/rentline/internal/conversation"
	"github.com/zhuravin/rentline/internal/dashboard"
	"github.com/zhuravin/rentline/internal/db"
	"github.com/zhuravin/rentline/internal/feed"
	"github.com/zhuravin/rentline/internal/notify"
	"github.com/zhuravin/rentline/internal/store"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot daemon",
		Long:  "Connects to the chat platform, migrates the database, and serves listing flows until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "rentline.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	secrets := config.LoadSecrets()

	gormDB, err := db.Connect(cfg.Database, secrets.MySQLPassword)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	st, err := store.New(gormDB)
	if err != nil {
		return err
	}

	adapter, err := newAdapter(cfg, secrets)
	if err != nil {
		return err
	}

	notifier, err := notify.New(notify.Opts{
		Store:   st,
		Adapter: adapter,
		Exclude: cfg.AdminIDs,
	})
	if err != nil {
		return err
	}
	conv, err := conversation.NewEngine(conversation.EngineOpts{
		Store:     st,
		Adapter:   adapter,
		Announcer: notifier,
		MaxPhotos: cfg.Feed.MaxPhotosPerListing,
	})
	if err != nil {
		return err
	}
	fd, err := feed.NewEngine(feed.Opts{
		Store:     st,
		Adapter:   adapter,
		PromoRate: cfg.Feed.PromoRate,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		return err
	}
	router, err := bot.NewRouter(bot.RouterOpts{
		Store:        st,
		Conversation: conv,
		Feed:         fd,
		Adapter:      adapter,
		Admins:       cfg.AdminIDs,
		Out:          cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	var digest *bot.Digest
	if cfg.Digest.Enabled {
		digest, err = bot.NewDigest(bot.DigestOpts{
			Store:   st,
			Adapter: adapter,
			Admins:  cfg.AdminIDs,
			Cron:    cfg.Digest.Cron,
		})
		if err != nil {
			return err
		}
	}

	daemon, err := bot.NewDaemon(bot.DaemonOpts{
		Adapter: adapter,
		Router:  router,
		Digest:  digest,
		Out:     cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Dashboard.Enabled {
		go func() {
			err := dashboard.Start(ctx, dashboard.StartOpts{
				Store: st,
				Port:  cfg.Dashboard.Port,
				Out:   cmd.OutOrStdout(),
			})
			if err != nil {
				log.Printf("dashboard: %v", err)
			}
		}()
	}

	return daemon.Run(ctx)
}

// newAdapter builds the platform adapter named in the config.
func newAdapter(cfg *config.Config, secrets config.Secrets) (chat.Adapter, error) {
	switch cfg.Platform {
	case "discord":
		if secrets.DiscordBotToken == "" {
			return nil, fmt.Errorf("DISCORD_BOT_TOKEN is not set")
		}
		return discord.New(discord.AdapterOpts{
			BotToken:  secrets.DiscordBotToken,
			ChannelID: cfg.ChannelID,
		})
	case "slack":
		if secrets.SlackBotToken == "" || secrets.SlackAppToken == "" {
			return nil, fmt.Errorf("SLACK_BOT_TOKEN and SLACK_APP_TOKEN must be set")
		}
		return slack.New(slack.AdapterOpts{
			BotToken:  secrets.SlackBotToken,
			AppToken:  secrets.SlackAppToken,
			ChannelID: cfg.ChannelID,
		})
	default:
		return nil, fmt.Errorf("unknown platform %q", cfg.Platform)
	}
}
