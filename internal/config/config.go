package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultRequestTimeout = 20
	defaultDeviceID       = "4004028937"
	defaultReferer        = "https://eticket.railway.gov.bd/"
	defaultBaseURL        = "https://railspaapi.shohoz.com/v1.0/web"
)

type PushoverConfig struct {
	Token string `yaml:"token" env:"PUSHOVER_TOKEN"`
	User  string `yaml:"user"  env:"PUSHOVER_USER"`
}

// Enabled reports whether both Pushover keys are set.
func (p PushoverConfig) Enabled() bool {
	return p.Token != "" && p.User != ""
}

type Config struct {
	Mobile        string `yaml:"mobile"          env:"MOBILE"`
	Password      string `yaml:"password"        env:"PASSWORD"`
	FromCity      string `yaml:"from_city"       env:"FROM_CITY"`
	ToCity        string `yaml:"to_city"         env:"TO_CITY"`
	DateOfJourney string `yaml:"date_of_journey" env:"DATE_OF_JOURNEY"`
	SeatClass     string `yaml:"seat_class"      env:"SEAT_CLASS"`

	// NeedSeats is nil when unset so an explicit zero is reported as invalid.
	NeedSeats *int `yaml:"need_seats" env:"NEED_SEATS"`

	TrainNames       []string `yaml:"train_name"        env:"TRAIN_NAME"        envSeparator:","`
	PreferredCoaches []string `yaml:"preferred_coaches" env:"PREFERRED_COACHES" envSeparator:","`
	PreferredSeats   []string `yaml:"preferred_seats"   env:"PREFERRED_SEATS"   envSeparator:","`

	// RequestTimeoutSeconds bounds every API call.
	RequestTimeoutSeconds int    `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	DeviceID              string `yaml:"device_id"       env:"DEVICE_ID"`
	Referer               string `yaml:"referer"         env:"REFERER"`
	BaseURL               string `yaml:"base"            env:"BASE"`

	Pushover PushoverConfig `yaml:"pushover"`
}

func defaults() Config {
	return Config{
		RequestTimeoutSeconds: defaultRequestTimeout,
		DeviceID:              defaultDeviceID,
		Referer:               defaultReferer,
		BaseURL:               defaultBaseURL,
	}
}

// Seats returns the number of seats to book, or zero when unset.
func (c *Config) Seats() int {
	if c.NeedSeats == nil {
		return 0
	}
	return *c.NeedSeats
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// LoadEnvFile adds the variables of a dotenv file to the process environment
// without overriding ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then environment variables, each overriding the previous.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) normalize() {
	c.TrainNames = cleanList(c.TrainNames)
	c.PreferredCoaches = cleanList(c.PreferredCoaches)
	c.PreferredSeats = cleanList(c.PreferredSeats)
}

func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"MOBILE", c.Mobile},
		{"PASSWORD", c.Password},
		{"FROM_CITY", c.FromCity},
		{"TO_CITY", c.ToCity},
		{"DATE_OF_JOURNEY", c.DateOfJourney},
		{"SEAT_CLASS", c.SeatClass},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if c.NeedSeats == nil {
		missing = append(missing, "NEED_SEATS")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	if n := c.Seats(); n <= 0 {
		return fmt.Errorf("NEED_SEATS must be positive, got %d", n)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %d", c.RequestTimeoutSeconds)
	}
	return nil
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
