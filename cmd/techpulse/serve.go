package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"TechPulse/internal/notifier"
	"TechPulse/internal/scheduler"
	"TechPulse/internal/server"

	"github.com/google/subcommands"
)

type serveCmd struct {
	noBot bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the dashboard, scheduler and Telegram bot" }
func (*serveCmd) Usage() string {
	return `techpulse serve [-no-bot]

  Serves the dashboard and JSON API until SIGINT or SIGTERM. The report index
  is reset on start and on the configured schedule.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.noBot, "no-bot", false, "Do not start Telegram polling even when a bot token is set.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log.Println("[INFO] TechPulse starting...")
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	col, err := newCollector(cfg, cfg.DataSource.PeerDelay)
	if err != nil {
		log.Printf("[FATAL] init collector: %v", err)
		return subcommands.ExitFailure
	}

	rec := newRecorder(cfg)
	defer rec.Close()

	var (
		reports server.Answerer
		index   scheduler.IndexResetter
	)
	sess, err := openSession(ctx, cfg, false)
	if err != nil {
		log.Printf("[WARN] report questions disabled: %v", err)
	} else {
		defer sess.Close()
		reports, index = sess, sess
	}

	sched := scheduler.NewScheduler(ctx, col, index, rec)
	if err := sched.RegisterAll(cfg.Schedule.ProbeCron, cfg.Schedule.IndexResetCron, cfg.Schedule.ProbeTicker); err != nil {
		log.Printf("[FATAL] register cron tasks: %v", err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()
	go sched.RunProbe()

	if cfg.Telegram.BotToken != "" && !c.noBot {
		bot := notifier.NewTelegramBot(cfg.Telegram.BotToken, cfg.Proxy)
		go bot.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	srv := server.New(col, reports, rec, sched, server.Options{
		MaxUploadBytes: cfg.Server.MaxUploadMiB << 20,
		AllowedOrigin:  cfg.Server.AllowedOrigin,
	})
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		log.Printf("[ERROR] dashboard: %v", err)
		return subcommands.ExitFailure
	}
	log.Println("[INFO] TechPulse stopped")
	return subcommands.ExitSuccess
}
