package config

import (
	"encoding/xml"
	"io"
	"os"
	"sync"
)

var (
	cfg  *APIConfig
	once sync.Once
)

// APIConfig represents the root element.
type APIConfig struct {
	XMLName        xml.Name             `xml:"API"`
	RequestDump    bool                 `xml:"REQUEST_DUMP,attr"`
	Context        ContextConfig        `xml:"CONTEXT"`
	Authentication AuthenticationConfig `xml:"AUTHENTICATION"`
	DB             DBConfig             `xml:"DB"`
	Sync           SyncConfig           `xml:"SYNC"`
	THIRD_PARTY    ThirdPartyConfig     `xml:"THIRD_PARTY"`
}

// ContextConfig holds basic server settings.
type ContextConfig struct {
	Port     int    `xml:"PORT"`
	Host     string `xml:"HOST"`
	Path     string `xml:"PATH"`
	TimeZone string `xml:"TIME_ZONE"`
}

// ThirdPartyConfig holds grading-oracle settings. The oracle is optional:
// grading falls back to local heuristics when it is unreachable.
type ThirdPartyConfig struct {
	OracleProvider string `xml:"ORACLE_PROVIDER"` // "ollama" or "openai"
	OllamaURL      string `xml:"OLLAMA_URL"`
	OllamaModel    string `xml:"OLLAMA_MODEL"`
	OpenAIKey      string `xml:"OPENAI_KEY"`
	OpenAIModel    string `xml:"OPENAI_MODEL"`
	TimeoutSeconds int    `xml:"TIMEOUT_SECONDS"`
	MaxRetries     int    `xml:"MAX_RETRIES"`
	RequestsPerMin int    `xml:"REQUESTS_PER_MIN"`
}

// AuthenticationConfig holds authentication settings.
type AuthenticationConfig struct {
	EnableTokenAuth bool `xml:"ENABLE_TOKEN_AUTH"`
	SessionTimeout  int  `xml:"SESSION_TIMEOUT"`
}

// SyncConfig holds cross-device sync settings.
type SyncConfig struct {
	Enabled        bool   `xml:"ENABLED"`
	RedisAddr      string `xml:"REDIS_ADDR"`
	RedisPassword  string `xml:"REDIS_PASSWORD"`
	RedisDB        int    `xml:"REDIS_DB"`
	DebounceMillis int    `xml:"DEBOUNCE_MILLIS"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Initialize bool       `xml:"INITIALIZE"`
	Host       string     `xml:"HOST"`
	Port       int        `xml:"PORT"`
	Driver     string     `xml:"DRIVER"` // "postgres" or "sqlite"
	SSLMode    string     `xml:"SSL_MODE"`
	Name       string     `xml:"NAME"`
	Username   string     `xml:"USERNAME"`
	Password   DBPassword `xml:"PASSWORD"`
	SQLitePath string     `xml:"SQLITE_PATH"`
}

// DBPassword holds password details.
type DBPassword struct {
	Type  string `xml:"TYPE,attr"`
	Value string `xml:",chardata"`
}

// LoadConfig loads and parses the XML configuration from the given file.
func LoadConfig(xmlPath string) (*APIConfig, error) {
	once.Do(func() {
		f, err := os.Open(xmlPath)
		if err != nil {
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return
		}

		var newCfg APIConfig
		if err := xml.Unmarshal(data, &newCfg); err != nil {
			return
		}

		applyDefaults(&newCfg)
		cfg = &newCfg
	})

	if cfg == nil {
		return nil, os.ErrInvalid
	}
	return cfg, nil
}

func applyDefaults(c *APIConfig) {
	if c.Sync.DebounceMillis <= 0 {
		c.Sync.DebounceMillis = 400
	}
	if c.THIRD_PARTY.TimeoutSeconds <= 0 {
		c.THIRD_PARTY.TimeoutSeconds = 30
	}
	if c.THIRD_PARTY.MaxRetries <= 0 {
		c.THIRD_PARTY.MaxRetries = 3
	}
	if c.THIRD_PARTY.RequestsPerMin <= 0 {
		c.THIRD_PARTY.RequestsPerMin = 30
	}
	// Secrets may come from the environment instead of the XML file.
	if c.THIRD_PARTY.OpenAIKey == "" {
		c.THIRD_PARTY.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Sync.RedisPassword == "" {
		c.Sync.RedisPassword = os.Getenv("REDIS_PASSWORD")
	}
}

// GetConfig returns the loaded configuration.
func GetConfig() *APIConfig {
	return cfg
}
