package config

import (
	"time"
)

const (
	DefaultGraphBaseURL = "https://graph.facebook.com"
	DefaultGraphVersion = "v20.0"
	DefaultMediaTTL     = 6 * time.Hour
	DefaultPacingDelay  = 600 * time.Millisecond
)

// Config holds all application configuration in a structured way.
type Config struct {
	App          AppConfig
	Whatsapp     WhatsappConfig
	Media        MediaConfig
	Conversation ConversationConfig
	Database     DatabaseConfig
	WorkerPool   WorkerPoolConfig
}

type AppConfig struct {
	Version     string
	Port        string
	Debug       bool
	Environment string
}

type WhatsappConfig struct {
	VerifyToken   string
	AccessToken   string
	PhoneNumberID string
	// AppSecret enables X-Hub-Signature-256 checks when set.
	AppSecret    string
	GraphBaseURL string
	GraphVersion string
	HTTPTimeout  time.Duration
	MaxVideoSize int64
}

type MediaConfig struct {
	ImageURL string
	VideoURL string
	CacheTTL time.Duration
}

type ConversationConfig struct {
	PacingDelay time.Duration
	ScriptFile  string
	Async       bool
}

type DatabaseConfig struct {
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

// LoadConfig builds the configuration from viper, which is already bound to
// the environment, the optional .env file and the command line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Version:     "v1.0.0",
			Port:        getString("3000", "app_port", "port"),
			Debug:       getBool(false, "app_debug", "debug"),
			Environment: getString("development", "app_env"),
		},
		Whatsapp: WhatsappConfig{
			VerifyToken:   getString("", "whatsapp_verify_token", "verify_token"),
			AccessToken:   getString("", "whatsapp_token", "whatsapp_access_token"),
			PhoneNumberID: getString("", "whatsapp_phone_number_id", "phone_number_id"),
			AppSecret:     getString("", "whatsapp_app_secret", "app_secret"),
			GraphBaseURL:  getString(DefaultGraphBaseURL, "whatsapp_graph_base_url"),
			GraphVersion:  getString(DefaultGraphVersion, "whatsapp_graph_version"),
			HTTPTimeout:   getDuration(15*time.Second, "graph_http_timeout"),
			MaxVideoSize:  getInt64(16*1024*1024, "whatsapp_max_video_size"),
		},
		Media: MediaConfig{
			ImageURL: getString("", "media_image_url"),
			VideoURL: getString("", "media_video_url"),
			CacheTTL: getDuration(DefaultMediaTTL, "media_cache_ttl"),
		},
		Conversation: ConversationConfig{
			PacingDelay: getDuration(DefaultPacingDelay, "conversation_pacing_delay"),
			ScriptFile:  getString("", "script_file"),
			Async:       getBool(false, "webhook_async"),
		},
		Database: DatabaseConfig{
			ValkeyEnabled:   getBool(false, "valkey_enabled"),
			ValkeyAddress:   getString("localhost:6379", "valkey_address"),
			ValkeyPassword:  getString("", "valkey_password"),
			ValkeyDB:        getInt(0, "valkey_db"),
			ValkeyKeyPrefix: getString("azfunnel:", "valkey_key_prefix"),
		},
		WorkerPool: WorkerPoolConfig{
			Size:      getInt(20, "message_worker_pool_size"),
			QueueSize: getInt(1000, "message_worker_queue_size"),
		},
	}

	return cfg, nil
}
