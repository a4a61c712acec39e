package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
	Mail     MailConfig     `mapstructure:"mail" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL           string `mapstructure:"url" validate:"required,url"`
	MigrationsDir string `mapstructure:"migrations_dir" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
// Lifetimes are expressed in minutes.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes" validate:"required,gte=1,lte=1440"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gte=1,lte=43200"`
	ResetTokenLifetimeMinutes   int    `mapstructure:"reset_token_lifetime_minutes" validate:"required,gte=1,lte=1440"`
}

// TaskConfig contains settings for the background task subsystem.
// Embedded controls whether the HTTP server process also runs task workers;
// disable it when dedicated worker processes are deployed.
type TaskConfig struct {
	WorkerCount         int  `mapstructure:"worker_count" validate:"required,gte=1,lte=32"`
	QueueSize           int  `mapstructure:"queue_size" validate:"required,gte=1"`
	StuckTaskAgeMinutes int  `mapstructure:"stuck_task_age_minutes" validate:"required,gte=1"`
	PollIntervalSeconds int  `mapstructure:"poll_interval_seconds" validate:"required,gte=1"`
	Embedded            bool `mapstructure:"embedded"`
}

// MailConfig contains settings for outbound email delivery.
// Driver selects the implementation: "log" writes messages to the application
// log (development), "smtp" delivers through the configured SMTP server.
// MaxRetries and RetryDelaySeconds control redelivery of transiently failed
// sends; permanent SMTP failures are never retried.
type MailConfig struct {
	Driver            string `mapstructure:"driver" validate:"required,oneof=log smtp"`
	Host              string `mapstructure:"host" validate:"required_if=Driver smtp"`
	Port              int    `mapstructure:"port" validate:"required_if=Driver smtp,omitempty,gt=0,lt=65536"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	FromAddress       string `mapstructure:"from_address" validate:"required_if=Driver smtp,omitempty,email"`
	ResetBaseURL      string `mapstructure:"reset_base_url" validate:"required,url"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0,lte=60"`
}
