package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string
	InboxDir  string
	SchemaDir string

	Schema            string
	ParseMode         string
	OrgSuffix         string
	DayFirst          bool
	NearDupThreshold  float64
	RecordRuns        bool
	ExportXLSX        bool
	WatchDebounceMs   int
	WatchProcessedDir string
	LogLevel          string
	LogJSON           bool

	MailProvider    string
	MailLabel       string
	MailIntervalSec int
	MailFetchMax    int

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string
	GmailQuery        string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("ROLLS_DB_PATH", filepath.Join(cwd, "data", "rolls.db")),
		OutputDir: getEnv("ROLLS_OUTPUT_DIR", filepath.Join(cwd, "out")),
		InboxDir:  getEnv("ROLLS_INBOX_DIR", filepath.Join(cwd, "data", "inbox")),
		SchemaDir: getEnv("ROLLS_SCHEMA_DIR", filepath.Join(cwd, "schemas")),

		Schema:            getEnv("ROLLS_SCHEMA", "excel11"),
		ParseMode:         getEnv("ROLLS_PARSE_MODE", "lenient"),
		OrgSuffix:         getEnv("ROLLS_ORG_SUFFIX", "AAFC"),
		DayFirst:          getEnvBool("ROLLS_DAY_FIRST", true),
		NearDupThreshold:  getEnvFloat("ROLLS_NEAR_DUP_THRESHOLD", 0.85),
		RecordRuns:        getEnvBool("ROLLS_RECORD_RUNS", false),
		ExportXLSX:        getEnvBool("ROLLS_EXPORT_XLSX", false),
		WatchDebounceMs:   getEnvInt("ROLLS_WATCH_DEBOUNCE_MS", 750),
		WatchProcessedDir: getEnv("ROLLS_WATCH_PROCESSED_DIR", ""),
		LogLevel:          getEnv("ROLLS_LOG_LEVEL", "info"),
		LogJSON:           getEnvBool("ROLLS_LOG_JSON", false),

		MailProvider:    strings.ToLower(strings.TrimSpace(getEnv("ROLLS_MAIL_PROVIDER", ""))),
		MailLabel:       getEnv("ROLLS_MAIL_LABEL", "INBOX"),
		MailIntervalSec: getEnvInt("ROLLS_MAIL_INTERVAL_SEC", 60),
		MailFetchMax:    getEnvInt("ROLLS_MAIL_FETCH_MAX", 20),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailQuery:        getEnv("ROLLS_GMAIL_QUERY", "has:attachment"),
	}

	// ROLLS_STRICT is the older switch and still wins when set.
	if getEnvBool("ROLLS_STRICT", false) {
		cfg.ParseMode = "strict"
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
