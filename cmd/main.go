package main

import (
	"bytes"
	"competitor-price-monitor/config"
	"competitor-price-monitor/internal/alert"
	"competitor-price-monitor/internal/cache"
	"competitor-price-monitor/internal/chart"
	"competitor-price-monitor/internal/database"
	"competitor-price-monitor/internal/history"
	"competitor-price-monitor/internal/metrics"
	"competitor-price-monitor/internal/monitor"
	"competitor-price-monitor/internal/notify"
	"competitor-price-monitor/internal/price"
	"competitor-price-monitor/internal/rules"
	"competitor-price-monitor/internal/telegram"
	"competitor-price-monitor/lib/translation"
	"context"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"
)

const (
	metricsSaveInterval = 5 * time.Minute
	alertRetention      = 90 * 24 * time.Hour
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file, using the environment only")
	}
	config.InitConfig()
	setupLogging()

	translation.Configure("locales", config.GetString("lang"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(config.GetString("database_driver"), config.GetString("database_dsn"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	monitorMetrics := metrics.NewMonitor(prometheus.DefaultRegisterer)
	monitorMetrics.Load(db)

	watchlist := config.GetString("watchlist_path")
	registry := rules.NewRegistry()
	specs, err := rules.LoadSeed(watchlist)
	if err != nil {
		log.Fatalf("Failed to read watchlist: %v", err)
	}
	if _, err := registry.Seed(specs); err != nil {
		log.Fatalf("Failed to seed rules: %v", err)
	}

	sources, err := price.LoadSources(watchlist)
	if err != nil {
		log.Fatalf("Failed to read price sources: %v", err)
	}
	fetcher, err := price.Build(sources, price.Options{
		PaprikaAPIKey: config.GetString("api_pro_key"),
		BrowserRender: config.GetBool("browser_render"),
	})
	if err != nil {
		log.Fatalf("Failed to build price sources: %v", err)
	}
	log.Infof("Watching %d rule(s) on platforms %v", len(registry.List()), fetcher.Platforms())

	archive := database.NewAlertArchive(db)
	hub := notify.NewHub()
	dispatchers := notify.NewFanout(archive, hub)

	mon := monitor.New(registry, history.NewStore(), fetcher, alert.NewPipeline(dispatchers)).
		WithMetrics(monitorMetrics).
		WithAlertCounter(archive)

	if config.GetBool("wechat_enabled") {
		wechat, err := notify.LoginWeChat(config.GetString("wechat_storage_path"))
		if err != nil {
			log.Fatalf("Failed to start wechat: %v", err)
		}
		defer wechat.Close()
		dispatchers.Add(notify.NewWeChat(wechat, config.GetString("wechat_group")))
	}

	if token := config.GetString("telegram_bot_token"); token != "" {
		bot := startTelegram(ctx, token, mon, monitorMetrics)
		if chatID := config.GetInt64("telegram_chat_id"); chatID != 0 {
			dispatchers.Add(telegram.NewAlertDispatcher(bot, chatID))
		}
	}

	monitorDone := make(chan struct{})
	go func() {
		mon.Start(ctx, config.GetDuration("cycle_interval"))
		close(monitorDone)
	}()

	go func() {
		ticker := time.NewTicker(metricsSaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				monitorMetrics.Save(db)
				if n, err := archive.DeleteBefore(ctx, time.Now().Add(-alertRetention)); err != nil {
					log.Errorf("Failed to prune alerts: %v", err)
				} else if n > 0 {
					log.Infof("Pruned %d old alert(s)", n)
				}
			}
		}
	}()

	server := newServer(config.GetInt("metrics_port"), hub)
	go func() {
		log.Infof("Launching metrics and health endpoint on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start metrics and health server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down, waiting for the running cycle...")
	<-monitorDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to stop http server: %v", err)
	}
	monitorMetrics.Save(db)
	log.Info("Metrics saved, shutting down...")
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetString("log_level") == "info" {
		log.SetLevel(log.InfoLevel)
	}
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting competitor price monitor...")
}

func startTelegram(ctx context.Context, token string, mon *monitor.Monitor, m *metrics.Monitor) *telegram.Bot {
	var charts cache.Cache = cache.NewMemory()
	if addr := config.GetString("redis_addr"); addr != "" {
		redisCache, err := cache.NewRedis(ctx, addr, config.GetString("redis_password"), config.GetInt("redis_db"))
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		charts = redisCache
	}

	font, err := chart.LoadFont(config.GetString("chart_font_path"))
	if err != nil {
		log.Fatalf("Failed to load chart font: %v", err)
	}

	commands := telegram.NewCommands(mon, chart.NewRenderer(font), charts)
	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          token,
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	}, commands)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}

	go func() {
		<-ctx.Done()
		bot.Bot.StopReceivingUpdates()
	}()
	go handleUpdates(ctx, bot, updates, m)

	return bot
}

func handleUpdates(ctx context.Context, bot *telegram.Bot, updates tgbotapi.UpdatesChannel, m *metrics.Monitor) {
	for update := range updates {
		if update.CallbackQuery != nil {
			bot.HandleCallbackQuery(update.CallbackQuery)
			continue
		}

		if update.Message == nil || !update.Message.IsCommand() {
			log.Debug("Received non-message or non-command")
			continue
		}

		handleCommand(ctx, bot, update, m)
	}
}

func handleCommand(ctx context.Context, bot *telegram.Bot, update tgbotapi.Update, m *metrics.Monitor) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	if err := bot.HandleUpdate(ctx, update); err != nil {
		log.Errorf("Failed to send message: %v", err)
		return
	}
	m.Commands.Inc()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func newServer(port int, hub *notify.Hub) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)
	mux.HandleFunc("/ws/alerts", hub.HandleWS)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
