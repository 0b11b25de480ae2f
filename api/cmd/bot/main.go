package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"smas/api/internal/client"
	"smas/api/internal/config"
	"smas/api/internal/diary"
	"smas/api/internal/httpserver"
	"smas/api/internal/logging"
	"smas/api/internal/session"
	"smas/api/internal/telegram"
)

func main() {
	_ = godotenv.Load() // .env необязателен

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	closeLog := logging.Setup("[bot]", cfg.LogFile)
	defer closeLog()

	if cfg.TelegramBotToken == "" {
		cfg.TelegramBotToken = config.MustEnv("TELEGRAM_BOT_TOKEN")
	}
	if strings.TrimSpace(cfg.ProxyURL) == "" {
		cfg.ProxyURL = "http://127.0.0.1:" + cfg.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Diary: Postgres, если есть DSN, иначе SQLite-файл ---
	dsn := resolveDSN(cfg.DatabaseURL)
	if dsn != "" {
		log.Printf("db: %s", safeDSNSummary(dsn))
	}
	store, err := diary.Open(ctx, dsn, cfg.DiaryDB)
	if err != nil {
		log.Fatalf("diary: %v", err)
	}
	defer store.Close()

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false

	r := &telegram.Router{
		Bot:      bot,
		Sessions: session.NewManager(),
		Solver:   client.New(cfg.ProxyURL, int(cfg.MaxStreamBytes)),
		Diary:    store,
		Timeout:  cfg.RequestTimeout,
	}

	// ListenForWebhook регистрирует обработчик на DefaultServeMux, поэтому healthz туда же.
	http.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	addr := "0.0.0.0:" + botPort(cfg.Port)

	// --- Webhook vs Polling ---
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(ctx, addr, bot, r, webhookURL)
	} else {
		startPollingMode(ctx, addr, bot, r)
	}
}

// botPort: BOT_PORT, иначе PORT+1, чтобы не конфликтовать с прокси на той же машине.
func botPort(proxyPort string) string {
	if p := strings.TrimSpace(os.Getenv("BOT_PORT")); p != "" {
		return p
	}
	if n, err := strconv.Atoi(proxyPort); err == nil {
		return strconv.Itoa(n + 1)
	}
	return "8081"
}

// ---------------- Modes -----------------

func startWebhookMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) {
	// секретный путь вебхука
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal(err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal(err)
	}

	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			r.HandleUpdate(upd)
		}
		log.Printf("webhook updates channel closed")
	}()

	log.Printf("webhook listening on %s%s", addr, path)
	if err := httpserver.Run(ctx, httpserver.New(addr, nil)); err != nil { // DefaultServeMux
		log.Fatal(err)
	}
}

func startPollingMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router) {
	// healthz для платформы; для polling не обязателен
	go func() {
		if err := httpserver.Run(ctx, httpserver.New(addr, nil)); err != nil {
			log.Printf("health server: %v", err)
		}
	}()

	runPolling(ctx, bot, r.HandleUpdate)
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Printf("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling, сек

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			log.Printf("polling error: %v; retry in %v", err, d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ---------------- Helpers -----------------

// resolveDSN: DATABASE_URL, либо POSTGRES_*/PG*, если задан хотя бы PGHOST или POSTGRES_DB.
// Пустая строка — работаем на SQLite.
func resolveDSN(databaseURL string) string {
	if v := strings.TrimSpace(databaseURL); v != "" {
		return v
	}
	if os.Getenv("PGHOST") == "" && os.Getenv("POSTGRES_DB") == "" {
		return ""
	}
	user := getenvDefault("POSTGRES_USER", "smas")
	pass := os.Getenv("POSTGRES_PASSWORD")
	host := getenvDefault("PGHOST", "db")
	port := getenvDefault("PGPORT", "5432")
	db := getenvDefault("POSTGRES_DB", "smas")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func shortHash(s string) string {
	// FNV-1a: стабильный путь вебхука для токена (не крипто)
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return fmt.Sprintf("%016x", h)
}

func safeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
