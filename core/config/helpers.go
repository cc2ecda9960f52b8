package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GetAllSettings returns the non-secret settings, for the health endpoint and
// the script command.
func GetAllSettings(cfg *Config) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_version":               cfg.App.Version,
		"app_debug":                 cfg.App.Debug,
		"whatsapp_graph_version":    cfg.Whatsapp.GraphVersion,
		"whatsapp_phone_number_id":  cfg.Whatsapp.PhoneNumberID,
		"whatsapp_signature_check":  cfg.Whatsapp.AppSecret != "",
		"media_cache_ttl":           cfg.Media.CacheTTL.String(),
		"conversation_pacing_delay": cfg.Conversation.PacingDelay.String(),
		"conversation_script_file":  cfg.Conversation.ScriptFile,
		"webhook_async":             cfg.Conversation.Async,
		"valkey_enabled":            cfg.Database.ValkeyEnabled,
	}
}

// lookup returns the first non-empty value among keys.
func lookup(keys ...string) (string, bool) {
	for _, k := range keys {
		if v := strings.TrimSpace(viper.GetString(k)); v != "" {
			return v, true
		}
	}
	return "", false
}

func getString(fallback string, keys ...string) string {
	if v, ok := lookup(keys...); ok {
		return v
	}
	return fallback
}

func getInt(fallback int, keys ...string) int {
	if v, ok := lookup(keys...); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getInt64(fallback int64, keys ...string) int64 {
	if v, ok := lookup(keys...); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(fallback bool, keys ...string) bool {
	if v, ok := lookup(keys...); ok {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}

// getDuration accepts Go duration strings ("600ms", "6h") or a bare number of milliseconds.
func getDuration(fallback time.Duration, keys ...string) time.Duration {
	v, ok := lookup(keys...)
	if !ok {
		return fallback
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}
