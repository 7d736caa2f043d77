// Package config owns the application's layered configuration (C13):
// built-in defaults, an optional config/{app}.{json,toml,yaml} file,
// then environment variables, each layer overriding the last. Grounded
// on the viper-layering idiom the retrieval pack's non-teacher repos
// use for server config (`s0up4200-arrbiter`, `kasuboski-mediaz`,
// `killallgit-killallplayer-api`, `nmihtuna204-Mangahub`,
// `itsmenewbie03-greg`) — the teacher itself has no single top-level
// config package, so this package's shape also borrows the "one
// sub-struct per concern, exported for GET /config" pattern those repos
// share, and each sub-struct mirrors the Config type the owning
// package (database, objectstorage, jobs, ...) already declares.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// App is the root of the application's configuration tree. Every
// exported field round-trips through JSON for GET /config, with
// sensitive values swapped for masked copies by Masked.
type App struct {
	Server        Server        `mapstructure:"server"`
	Database      Database      `mapstructure:"database"`
	ObjectStorage ObjectStorage `mapstructure:"object_storage"`
	Jobs          Jobs          `mapstructure:"jobs"`
	Providers     Providers     `mapstructure:"providers"`
	Mailer        Mailer        `mapstructure:"mailer"`
	OIDC          OIDC          `mapstructure:"oidc"`
	Logging       Logging       `mapstructure:"logging"`
	Auth          Auth          `mapstructure:"auth"`
}

// Server holds the HTTP gateway's own settings (C14).
type Server struct {
	Port              int           `mapstructure:"port"`
	PlaygroundEnabled bool          `mapstructure:"playground_enabled"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// Database mirrors internal/database.Config; DSN is masked on output.
type Database struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ObjectStorage mirrors internal/objectstorage.Config; SecretAccessKey
// is masked on output.
type ObjectStorage struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

// Jobs mirrors services/jobs.Config, plus the two cron expressions
// driving services/jobs.Scheduler.
type Jobs struct {
	QueueDepth          int    `mapstructure:"queue_depth"`
	LpWorkers           int    `mapstructure:"lp_workers"`
	MpWorkers           int    `mapstructure:"mp_workers"`
	HpWorkers           int    `mapstructure:"hp_workers"`
	MaxImportRetries    int    `mapstructure:"max_import_retries"`
	BackgroundTasksCron string `mapstructure:"background_tasks_cron"`
	MetadataRefreshCron string `mapstructure:"metadata_refresh_cron"`
}

// Providers holds every catalog provider's API credential (C1). Every
// token field here is masked on output per spec.md's explicit list.
type Providers struct {
	TMDBToken          string `mapstructure:"tmdb_token"`
	TMDBLanguage       string `mapstructure:"tmdb_language"`
	TVDBToken          string `mapstructure:"tvdb_token"`
	ListennotesToken   string `mapstructure:"listennotes_token"`
	TwitchClientID     string `mapstructure:"twitch_client_id"`
	TwitchClientSecret string `mapstructure:"twitch_client_secret"`
	GoogleBooksKey     string `mapstructure:"google_books_key"`
	HardcoverKey       string `mapstructure:"hardcover_key"`
	MALClientID        string `mapstructure:"mal_client_id"`
	MDBListKey         string `mapstructure:"mdblist_key"`
	MDBListEnabled     bool   `mapstructure:"mdblist_enabled"`
	HTTPTimeout        time.Duration `mapstructure:"http_timeout"`
}

// Mailer configures the SMTP sink SendGrid falls back to when unset;
// Password is masked on output.
type Mailer struct {
	SendgridKey string `mapstructure:"sendgrid_key"`
	FromAddress string `mapstructure:"from_address"`
	SMTPHost    string `mapstructure:"smtp_host"`
	SMTPPort    int    `mapstructure:"smtp_port"`
	Password    string `mapstructure:"password"`
}

// OIDC configures the optional single-sign-on login path; ClientSecret
// is masked on output.
type OIDC struct {
	Enabled      bool   `mapstructure:"enabled"`
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// Logging configures the zerolog-over-lumberjack pipeline (C13).
type Logging struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Auth configures session JWT issuance (C12); Secret is masked on
// output and must be at least 32 bytes in production (the zero-value
// default only suffices for local development against an empty DB).
type Auth struct {
	Secret            string        `mapstructure:"secret"`
	Issuer            string        `mapstructure:"issuer"`
	AccessTokenTTL    time.Duration `mapstructure:"access_token_ttl"`
	PersistentTokenTTL time.Duration `mapstructure:"persistent_token_ttl"`
}

// maskedValue is substituted for any field Masked redacts, matching
// the literal string spec.md's GET /config note calls for.
const maskedValue = "****"

// Load builds an App from, in increasing priority: built-in defaults,
// an optional config file under configDir named app.{json,toml,yaml},
// then environment variables (RYOT_SERVER__PORT, RYOT_DATABASE__URL,
// ...; "__" separates nesting, matching viper's AutomaticEnv +
// SetEnvKeyReplacer idiom). configDir may be empty, in which case only
// the working directory's ./config is searched.
func Load(configDir string) (*App, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("app")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ryot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "__", "_"))
	v.AutomaticEnv()

	var app App
	if err := v.Unmarshal(&app); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &app, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.playground_enabled", false)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("object_storage.force_path_style", false)

	v.SetDefault("jobs.queue_depth", 1024)
	v.SetDefault("jobs.lp_workers", 2)
	v.SetDefault("jobs.mp_workers", 4)
	v.SetDefault("jobs.hp_workers", 4)
	v.SetDefault("jobs.max_import_retries", 5)
	v.SetDefault("jobs.background_tasks_cron", "@every 1h")
	v.SetDefault("jobs.metadata_refresh_cron", "@every 6h")

	v.SetDefault("providers.tmdb_language", "en")
	v.SetDefault("providers.mdblist_enabled", false)
	v.SetDefault("providers.http_timeout", 30*time.Second)

	v.SetDefault("mailer.smtp_port", 587)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dir", "logs")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 28)

	v.SetDefault("auth.issuer", "ryotgo")
	v.SetDefault("auth.access_token_ttl", 30*24*time.Hour)
	v.SetDefault("auth.persistent_token_ttl", 100*365*24*time.Hour)
}

// Masked returns a copy of app with every credential-bearing field
// replaced by "****", exactly the set spec.md names for GET /config:
// database URL, TMDB token, Listennotes token, Twitch client id/secret,
// mailer passwords, and the OIDC client secret.
func (a App) Masked() App {
	masked := a
	if masked.Database.URL != "" {
		masked.Database.URL = maskedValue
	}
	if masked.ObjectStorage.SecretAccessKey != "" {
		masked.ObjectStorage.SecretAccessKey = maskedValue
	}
	if masked.Providers.TMDBToken != "" {
		masked.Providers.TMDBToken = maskedValue
	}
	if masked.Providers.TVDBToken != "" {
		masked.Providers.TVDBToken = maskedValue
	}
	if masked.Providers.ListennotesToken != "" {
		masked.Providers.ListennotesToken = maskedValue
	}
	if masked.Providers.TwitchClientID != "" {
		masked.Providers.TwitchClientID = maskedValue
	}
	if masked.Providers.TwitchClientSecret != "" {
		masked.Providers.TwitchClientSecret = maskedValue
	}
	if masked.Providers.HardcoverKey != "" {
		masked.Providers.HardcoverKey = maskedValue
	}
	if masked.Providers.GoogleBooksKey != "" {
		masked.Providers.GoogleBooksKey = maskedValue
	}
	if masked.Providers.MDBListKey != "" {
		masked.Providers.MDBListKey = maskedValue
	}
	if masked.Mailer.SendgridKey != "" {
		masked.Mailer.SendgridKey = maskedValue
	}
	if masked.Mailer.Password != "" {
		masked.Mailer.Password = maskedValue
	}
	if masked.OIDC.ClientSecret != "" {
		masked.OIDC.ClientSecret = maskedValue
	}
	if masked.Auth.Secret != "" {
		masked.Auth.Secret = maskedValue
	}
	return masked
}
