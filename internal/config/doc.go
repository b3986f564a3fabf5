// Package config loads docwatch settings.
//
// # Configuration Discovery
//
// Load resolves settings in this order, later steps winning:
//
//  1. Built-in defaults (see Default)
//  2. ~/.config/docwatch/config.toml, or the path passed to Load
//  3. A .env file in the working directory, which only fills variables that
//     are not already set
//  4. DOCWATCH_API_URL, DOCWATCH_TOKEN, DOCWATCH_TOKEN_FILE, DOCWATCH_LOG_LEVEL
//
// A missing config file is not an error. Values are trimmed and empty values
// keep the default. Durations use Go syntax ("3s", "150ms").
//
// # TOML Format
//
//	api_base_url = "https://api.docsops.me/api/v1"
//	token_file = "~/.config/docwatch/token"
//	poll_interval = "3s"
//	notification_interval = "15s"
//	search_debounce = "300ms"
//	search_cache_ttl = "30s"
//	search_cache_size = 64
//	request_timeout = "10s"
//	log_file = "~/.local/state/docwatch/docwatch.log"
//	log_level = "info"
//	metrics_addr = "127.0.0.1:9464"
//	storage_public_url = "https://<project>.supabase.co/storage/v1/object/public"
//
// The merged result is checked with validator struct tags; Load fails with
// every violated field listed.
package config
