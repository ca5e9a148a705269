package config

import "strings"

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	WhatsApp   WhatsAppConfig
	SMTP       SMTPConfig
	Speech     SpeechConfig
	Classifier ClassifierConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port     int
	MCPPort  int
	APIToken string
}

type StorageConfig struct {
	DataDir string
}

type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SpeechConfig struct {
	BaseURL string
	APIKey  string
}

type ClassifierConfig struct {
	EscalationThreshold float64
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:    8080,
			MCPPort: 8081,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		Classifier: ClassifierConfig{
			EscalationThreshold: 0.7,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.relay.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/relay/config.json
// and secrets live in $XDG_DATA_HOME/relay/secrets.json.
//
// Environment variables (RELAY_*) override backend values on all platforms.
// Every transport credential is optional: channels without credentials run
// in simulated mode.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts platform secret storage for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Secrets never live in the backend; consult the platform secret
	// store for any still unset after env overrides.
	for _, s := range specs {
		if !s.secret {
			continue
		}
		if v, _ := s.extract(cfg).(string); v != "" {
			continue
		}
		if key, err := kc.Get("relay", s.account); err == nil && key != "" {
			s.apply(&cfg, key)
		}
	}

	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
