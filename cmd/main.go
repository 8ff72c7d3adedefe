package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/leonelquinteros/gotext"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/lucashahnndev/radar-do-caos/config"
	"github.com/lucashahnndev/radar-do-caos/internal/alert"
	"github.com/lucashahnndev/radar-do-caos/internal/httpapi"
	"github.com/lucashahnndev/radar-do-caos/internal/notify"
	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
	"github.com/lucashahnndev/radar-do-caos/internal/scheduler"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
	"github.com/lucashahnndev/radar-do-caos/internal/telegram"
)

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	gotext.Configure("locales", strings.ToLower(config.GetString("lang")), "default")

	loc := config.Location()

	store, err := storage.Open(config.GetString("db_path"), loc)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	LoadMetricsFromDB(store)

	yahoo := quotes.NewYahooClient(config.GetString("quote_base_url"), 10*time.Second)
	source := quotes.NewCachedSource(yahoo, 5*time.Minute)
	composer := alert.NewDigestComposer(store, source)

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:            config.GetString("telegram_bot_token"),
		Debug:            config.GetBool("debug"),
		UpdatesTimeout:   60,
		DashboardBaseURL: config.GetString("dashboard_base_url"),
	}, store, source, composer, loc)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	notifier := notify.NewTelegramNotifier(bot.Bot)
	sink := notify.NewSink(notifier, store)
	sink.OnFire = func(kind string) {
		metrics.AlertsFired.WithLabelValues(kind).Inc()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(
		loc,
		config.GetDuration("price_check_interval"),
		config.GetDuration("panic_check_interval"),
		config.GetDuration("digest_interval"),
		alert.NewPriceEvaluator(store, source, sink),
		alert.NewPanicEvaluator(store, source, sink, loc),
		alert.NewDigestJob(store, composer, notifier, loc),
	)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	api := httpapi.NewServer(store, source, config.GetString("dashboard_secret_key"), config.GetString("dashboard_base_url"))
	go func() {
		if err := api.Run(fmt.Sprintf(":%d", config.GetInt("api_port"))); err != nil {
			log.Fatalf("Failed to start dashboard API: %v", err)
		}
	}()

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}
	go handleUpdates(ctx, bot, updates)

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			SaveMetricsToDB(store)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		sched.Stop()
		cancel()
		SaveMetricsToDB(store)
		store.Close()
		log.Println("Metrics saved, shutting down...")
		os.Exit(0)
	}()

	if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
		log.Fatalf("Failed to start metrics and health server: %v", err)
	}
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting radar bot...")
}

func handleUpdates(ctx context.Context, bot *telegram.Bot, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil {
			log.Debug("Received non-message update")
			continue
		}
		if !update.Message.IsCommand() {
			continue
		}

		metrics.MessagesHandled.Inc()
		handleCommand(ctx, bot, update)
	}
}

func handleCommand(ctx context.Context, bot *telegram.Bot, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	text := bot.HandleUpdate(ctx, update)
	if text == "" {
		metrics.CommandsProcessed.Inc()
		return
	}

	err := bot.SendMessage(telegram.Message{
		ChatID:    int(update.Message.Chat.ID),
		Text:      text,
		MessageID: update.Message.MessageID,
	})
	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	} else {
		metrics.CommandsProcessed.Inc()
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}
