package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

// Config is the process configuration shared by every binary.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	Auth     AuthConfig
	Discord  DiscordConfig
	Poll     PollConfig
	Log      LogConfig
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	// Driver selects the store: postgres, or memory for throwaway runs.
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ConnString renders the lib/pq connection URL.
func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret string
	// OwnerID is the member identity allowed to run administrative actions.
	OwnerID string
}

type DiscordConfig struct {
	Token     string
	ChannelID string
}

// Enabled reports whether announcements should go to Discord.
func (c DiscordConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}

type PollConfig struct {
	ReminderLead time.Duration
	RetryDelay   time.Duration
}

type LogConfig struct {
	Level string
	JSON  bool
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		logging.Log.Info("No .env file found")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := Config{
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("STORE_DRIVER")),
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetString("POSTGRES_PORT"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			Name:     v.GetString("POSTGRES_DB"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		},
		HTTP: HTTPConfig{
			Addr:            v.GetString("HTTP_ADDR"),
			ShutdownTimeout: v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			OwnerID:   v.GetString("OWNER_ID"),
		},
		Discord: DiscordConfig{
			Token:     v.GetString("DISCORD_TOKEN"),
			ChannelID: v.GetString("DISCORD_CHANNEL_ID"),
		},
		Poll: PollConfig{
			ReminderLead: v.GetDuration("REMINDER_LEAD"),
			RetryDelay:   v.GetDuration("RESOLVE_RETRY_DELAY"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			JSON:  v.GetBool("LOG_JSON"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("HTTP_ADDR", "0.0.0.0:8080")
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("REMINDER_LEAD", 5*time.Minute)
	v.SetDefault("RESOLVE_RETRY_DELAY", time.Minute)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Database.Driver)
	}
	if c.Poll.ReminderLead < 0 {
		return fmt.Errorf("REMINDER_LEAD must not be negative, got %s", c.Poll.ReminderLead)
	}
	if c.Poll.RetryDelay <= 0 {
		return fmt.Errorf("RESOLVE_RETRY_DELAY must be positive, got %s", c.Poll.RetryDelay)
	}
	return nil
}
