package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/weblithic/site/internal/api"
	"github.com/weblithic/site/internal/docstore"
	"github.com/weblithic/site/internal/feed"
	"github.com/weblithic/site/internal/models"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Store   StoreConfig       `yaml:"store"`
	Cache   CacheConfig       `yaml:"cache"`
	Auth    AuthConfig        `yaml:"auth"`
	SMTP    SMTPConfig        `yaml:"smtp"`
	Contact ContactConfig     `yaml:"contact"`
	Client  api.ClientConfig  `yaml:"client"`
	Content ContentConfig     `yaml:"content"`
	Feed    FeedConfig        `yaml:"feed"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Store, &c.Cache, &c.Auth, &c.SMTP, &c.Contact, &c.Content, &c.Feed,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// BaseURL is the public origin used in RSS links.
	BaseURL string `yaml:"base_url"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.RequestURL),
	); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string.
	DSN     string        `yaml:"dsn"`
	Timeout time.Duration `yaml:"timeout"`
}

// Source returns the driver-specific data source.
func (c *StoreConfig) Source() string {
	if c.Driver == docstore.DriverPostgres {
		return c.DSN
	}
	return c.Path
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = docstore.DriverSQLite
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(docstore.DriverSQLite, docstore.DriverPostgres)),
		validation.Field(&c.Path, validation.When(c.Driver == docstore.DriverSQLite, validation.Required)),
		validation.Field(&c.DSN, validation.When(c.Driver == docstore.DriverPostgres, validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// CacheConfig configures the redis feed cache. An empty Addr disables it.
type CacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Enabled reports whether a redis address is configured.
func (c *CacheConfig) Enabled() bool { return c.Addr != "" }

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DB, validation.Min(0)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration for post mutations.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//   - "jwt": HS256 bearer JWT with an author or admin role; Secret must be non-empty.
type AuthConfig struct {
	Mode   string `yaml:"mode"`
	Token  string `yaml:"token"`
	Secret string `yaml:"jwt_secret"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = api.AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(api.AuthModeDisabled, api.AuthModeToken, api.AuthModeJWT)),
	); err != nil {
		return err
	}
	if c.Mode == api.AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", api.AuthModeToken)
	}
	if c.Mode == api.AuthModeJWT && c.Secret == "" {
		return fmt.Errorf("auth: mode is %q but jwt_secret is empty", api.AuthModeJWT)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode != api.AuthModeDisabled
}

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Validate validates the SMTP configuration. An empty host is allowed; the
// contact endpoint then fails each send.
func (c *SMTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.User, validation.When(c.Host != "", validation.Required, is.EmailFormat)),
	)
}

// ContactConfig configures the contact form relay.
type ContactConfig struct {
	Recipient string `yaml:"recipient"`
}

// Validate validates the contact configuration.
func (c *ContactConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Recipient, validation.Required, is.EmailFormat),
	)
}

// ContentConfig configures the Markdown import directory. An empty Dir
// disables importing.
type ContentConfig struct {
	Dir      string        `yaml:"dir"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// FeedConfig describes the blog in pages and RSS and the placeholder shown
// when no post can be loaded.
type FeedConfig struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Author      string            `yaml:"author"`
	Email       string            `yaml:"email"`
	Placeholder PlaceholderConfig `yaml:"placeholder"`
}

// PlaceholderConfig overrides the built-in placeholder post.
type PlaceholderConfig struct {
	Title    string `yaml:"title"`
	Excerpt  string `yaml:"excerpt"`
	Category string `yaml:"category"`
}

// Validate validates the feed configuration.
func (c *FeedConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.Email, is.EmailFormat),
	)
}

// Fallback returns the placeholder posts, or nil to keep the built-in one.
func (c *FeedConfig) Fallback() []models.Post {
	if c.Placeholder.Title == "" {
		return nil
	}
	p := feed.Placeholder()
	p.Title = c.Placeholder.Title
	if c.Placeholder.Excerpt != "" {
		p.Excerpt = c.Placeholder.Excerpt
	}
	if c.Placeholder.Category != "" {
		p.Category = c.Placeholder.Category
	}
	return []models.Post{p}
}

// Site returns the renderer's site description.
func (c *Config) Site() feed.Site {
	return feed.Site{
		Title:       c.Feed.Title,
		BaseURL:     c.App.BaseURL,
		Description: c.Feed.Description,
		Author:      c.Feed.Author,
		Email:       c.Feed.Email,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
			BaseURL: "http://localhost:8080",
		},
		Store: StoreConfig{
			Driver:  docstore.DriverSQLite,
			Path:    "./weblithic.db",
			Timeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			TTL: time.Minute,
		},
		Auth: AuthConfig{
			Mode: api.AuthModeDisabled,
		},
		SMTP: SMTPConfig{
			Port: 465,
		},
		Contact: ContactConfig{
			Recipient: "support@weblithic.com",
		},
		Content: ContentConfig{
			Watch:    true,
			Debounce: 200 * time.Millisecond,
		},
		Feed: FeedConfig{
			Title:       "Weblithic Blog",
			Description: "Articles on web design, development and mobile.",
			Author:      "Weblithic",
		},
	}
}
