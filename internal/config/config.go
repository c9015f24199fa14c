package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // images without zoneinfo still resolve ACCRUAL_TIMEZONE

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	AppPort    string
	AppBaseURL string
	LogLevel   string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs         int
	ScheduleCacheTTLSecs int

	AccrualCron     string
	AccrualTimezone string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

// Load reads the environment. A .env file in the working directory, when
// present, fills variables that are not already set.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		AppPort:    getenv("APP_PORT", "8080"),
		AppBaseURL: getenv("APP_BASE_URL", ""),
		LogLevel:   getenv("LOG_LEVEL", "info"),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "ngnasoro"),
		MySQLUser: getenv("MYSQL_USER", "ngnasoro"),
		MySQLPass: getenv("MYSQL_PASS", "ngnasoro"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   getint("REDIS_DB", 0),

		IdempTTLSecs:         getint("IDEMPOTENCY_TTL_SECONDS", 300),
		ScheduleCacheTTLSecs: getint("SCHEDULE_CACHE_TTL_SECONDS", 300),

		AccrualCron:     getenv("ACCRUAL_CRON", "0 6 * * *"),
		AccrualTimezone: getenv("ACCRUAL_TIMEZONE", "Africa/Bamako"),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SenderEmail:  getenv("SENDER_EMAIL", ""),
	}
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.IdempTTLSecs <= 0 || c.ScheduleCacheTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS and SCHEDULE_CACHE_TTL_SECONDS must be positive")
	}
	if _, err := cron.ParseStandard(c.AccrualCron); err != nil {
		return fmt.Errorf("invalid ACCRUAL_CRON %q: %w", c.AccrualCron, err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid ACCRUAL_TIMEZONE %q: %w", c.AccrualTimezone, err)
	}
	if c.SMTPHost != "" && c.SenderEmail == "" {
		return errors.New("SENDER_EMAIL is required when SMTP_HOST is set")
	}
	return nil
}

// Location is the timezone used to decide which calendar day "today" is.
func (c *Config) Location() (*time.Location, error) { return time.LoadLocation(c.AccrualTimezone) }

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) ScheduleCacheTTL() time.Duration {
	return time.Duration(c.ScheduleCacheTTLSecs) * time.Second
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime for DATE/DATETIME; loc=UTC keeps due dates on their calendar day
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
