// Package config loads foreman's configuration.
//
// Sources are merged with viper in increasing precedence:
//
//  1. Built-in defaults
//  2. ~/.config/foreman/config.toml (or the --config path)
//  3. FOREMAN_* environment variables, e.g. FOREMAN_API_URL
//  4. Command line flags, applied with Loader.SetOverride
//
// A missing config file is not an error. The merged result is checked with
// go-playground/validator and every failed rule is reported at once as
// ValidationErrors.
//
// Durations use Go syntax ("10s", "500ms"). Paths may start with "~".
//
// Example config.toml:
//
//	api_url = "https://api.opensuse.org"
//	servers = ["https://api.opensuse.org", "https://build.example.com"]
//	user = "alice"
//	password = "secret"
//	refresh_interval = "10s"
//	log_stream_delay = "1s"
//	request_timeout = "30s"
package config
