package conf

import (
	"fmt"
	"time"
)

type Bootstrap struct {
	Server   *Server   `yaml:"server" json:"server"`
	Data     *Data     `yaml:"data" json:"data"`
	Cron     *Cron     `yaml:"cron" json:"cron"`
	Delivery *Delivery `yaml:"delivery" json:"delivery"`
	Payment  *Payment  `yaml:"payment" json:"payment"`
	Log      *Log      `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
}

type Data struct {
	Database struct {
		Driver          string `yaml:"driver" json:"driver"`
		Source          string `yaml:"source" json:"source"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int32  `yaml:"db" json:"db"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
		DialTimeout  string `yaml:"dial_timeout" json:"dial_timeout"`
		PoolSize     int32  `yaml:"pool_size" json:"pool_size"`
		MinIdleConns int32  `yaml:"min_idle_conns" json:"min_idle_conns"`
	} `yaml:"redis" json:"redis"`
}

// Cron configures the daily dispatch run and its trigger endpoint.
type Cron struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Secret guards the HTTP trigger. Requests without it are rejected.
	Secret string `yaml:"secret" json:"secret"`
	// Schedule is the robfig/cron expression used by cmd/cron (seconds field included).
	Schedule string `yaml:"schedule" json:"schedule"`
	// WorkerCount bounds concurrent per-subscription dispatch.
	WorkerCount int `yaml:"worker_count" json:"worker_count"`
	// DeliveryTimeout caps one adapter send; expiry is recorded as failed.
	DeliveryTimeout string `yaml:"delivery_timeout" json:"delivery_timeout"`
	// LockExpiry is the redsync mutex TTL for the run lock.
	LockExpiry string `yaml:"lock_expiry" json:"lock_expiry"`
	// CompleteFinished flips progressive subscriptions past their last day
	// to status=completed instead of re-skipping them forever.
	CompleteFinished bool `yaml:"complete_finished" json:"complete_finished"`
}

type Delivery struct {
	// BaseURL is the public site root used to build read-on-web and unsubscribe links.
	BaseURL string `yaml:"base_url" json:"base_url"`
	Email   struct {
		SendgridKey string `yaml:"sendgrid_key" json:"sendgrid_key"`
		From        string `yaml:"from" json:"from"`
		FromName    string `yaml:"from_name" json:"from_name"`
	} `yaml:"email" json:"email"`
	Sms struct {
		TwilioAccountSid string `yaml:"twilio_account_sid" json:"twilio_account_sid"`
		TwilioAuthToken  string `yaml:"twilio_auth_token" json:"twilio_auth_token"`
		From             string `yaml:"from" json:"from"`
	} `yaml:"sms" json:"sms"`
}

type Payment struct {
	StripeKey     string `yaml:"stripe_key" json:"stripe_key"`
	WebhookSecret string `yaml:"webhook_secret" json:"webhook_secret"`
	Currency      string `yaml:"currency" json:"currency"`
	SuccessURL    string `yaml:"success_url" json:"success_url"`
	CancelURL     string `yaml:"cancel_url" json:"cancel_url"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// DeliveryTimeoutDuration returns the parsed per-send timeout, falling back to 30s.
func (c *Cron) DeliveryTimeoutDuration() time.Duration {
	if c != nil && c.DeliveryTimeout != "" {
		if d, err := time.ParseDuration(c.DeliveryTimeout); err == nil && d > 0 {
			return d
		}
	}
	return 30 * time.Second
}

// LockExpiryDuration returns the parsed run-lock TTL, falling back to 10m.
func (c *Cron) LockExpiryDuration() time.Duration {
	if c != nil && c.LockExpiry != "" {
		if d, err := time.ParseDuration(c.LockExpiry); err == nil && d > 0 {
			return d
		}
	}
	return 10 * time.Minute
}

// Validate validates the configuration
func (b *Bootstrap) Validate() error {
	if b.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Data == nil {
		return fmt.Errorf("data configuration is required")
	}
	if b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.Cron == nil {
		return fmt.Errorf("cron configuration is required")
	}
	if b.Cron.Secret == "" {
		return fmt.Errorf("cron.secret is required")
	}
	if b.Delivery == nil {
		return fmt.Errorf("delivery configuration is required")
	}
	if b.Delivery.BaseURL == "" {
		return fmt.Errorf("delivery.base_url is required")
	}
	if b.Payment == nil || b.Payment.StripeKey == "" {
		return fmt.Errorf("payment.stripe_key is required")
	}
	if b.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	return nil
}
