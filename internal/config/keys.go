package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	account string // secret store account name, secrets only
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "RELAY_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_port", typ: kInt, env: "RELAY_SERVER_MCP_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MCPPort },
	},
	{
		key: "server.api_token", typ: kString, env: "RELAY_API_TOKEN",
		secret: true, account: "api_token",
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "storage.data_dir", typ: kString, env: "RELAY_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "whatsapp.access_token", typ: kString, env: "RELAY_WHATSAPP_ACCESS_TOKEN",
		secret: true, account: "whatsapp_access_token",
		apply:   func(cfg *Config, v any) { cfg.WhatsApp.AccessToken = v.(string) },
		extract: func(cfg Config) any { return cfg.WhatsApp.AccessToken },
	},
	{
		key: "whatsapp.phone_number_id", typ: kString, env: "RELAY_WHATSAPP_PHONE_NUMBER_ID",
		apply:   func(cfg *Config, v any) { cfg.WhatsApp.PhoneNumberID = v.(string) },
		extract: func(cfg Config) any { return cfg.WhatsApp.PhoneNumberID },
	},
	{
		key: "whatsapp.verify_token", typ: kString, env: "RELAY_WHATSAPP_VERIFY_TOKEN",
		secret: true, account: "whatsapp_verify_token",
		apply:   func(cfg *Config, v any) { cfg.WhatsApp.VerifyToken = v.(string) },
		extract: func(cfg Config) any { return cfg.WhatsApp.VerifyToken },
	},
	{
		key: "smtp.host", typ: kString, env: "RELAY_SMTP_HOST",
		apply:   func(cfg *Config, v any) { cfg.SMTP.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.SMTP.Host },
	},
	{
		key: "smtp.port", typ: kInt, env: "RELAY_SMTP_PORT",
		apply:   func(cfg *Config, v any) { cfg.SMTP.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.SMTP.Port },
	},
	{
		key: "smtp.username", typ: kString, env: "RELAY_SMTP_USERNAME",
		apply:   func(cfg *Config, v any) { cfg.SMTP.Username = v.(string) },
		extract: func(cfg Config) any { return cfg.SMTP.Username },
	},
	{
		key: "smtp.password", typ: kString, env: "RELAY_SMTP_PASSWORD",
		secret: true, account: "smtp_password",
		apply:   func(cfg *Config, v any) { cfg.SMTP.Password = v.(string) },
		extract: func(cfg Config) any { return cfg.SMTP.Password },
	},
	{
		key: "smtp.from", typ: kString, env: "RELAY_SMTP_FROM",
		apply:   func(cfg *Config, v any) { cfg.SMTP.From = v.(string) },
		extract: func(cfg Config) any { return cfg.SMTP.From },
	},
	{
		key: "speech.base_url", typ: kString, env: "RELAY_SPEECH_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Speech.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Speech.BaseURL },
	},
	{
		key: "speech.api_key", typ: kString, env: "RELAY_SPEECH_API_KEY",
		secret: true, account: "speech_api_key",
		apply:   func(cfg *Config, v any) { cfg.Speech.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Speech.APIKey },
	},
	{
		key: "classifier.escalation_threshold", typ: kFloat, env: "RELAY_CLASSIFIER_ESCALATION_THRESHOLD",
		apply:   func(cfg *Config, v any) { cfg.Classifier.EscalationThreshold = v.(float64) },
		extract: func(cfg Config) any { return cfg.Classifier.EscalationThreshold },
	},
	{
		key: "log.level", typ: kString, env: "RELAY_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
