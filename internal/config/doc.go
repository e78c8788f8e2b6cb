// Package config loads stint's TOML configuration.
//
// # Overview
//
// The config file tells stint which API to talk to, how to authenticate and
// how to shape the views it renders. Every field is optional in the file;
// the API URL and token may come from the environment instead.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/stint/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. Environment variables override whatever the file set
//
// # Default Values
//
//   - Config file: ~/.config/stint/config.toml
//   - Page size: 15
//   - Event long-poll wait: 25 seconds
//   - Log file: ~/.local/state/stint/stint.log
//   - Log level: info
//
// # TOML Format
//
//	api_url = "https://track.example.com"
//	api_token = "..."
//	organization_id = "9f7c5d0e-2a8f-4a8e-9a53-4c0d2b1e6f10"
//	page_size = 15
//	poll_wait_seconds = 25
//	log_file = "~/.local/state/stint/stint.log"
//	log_level = "info"
//
// # Environment
//
//   - STINT_API_URL overrides api_url
//   - STINT_API_TOKEN overrides api_token
//   - STINT_ORGANIZATION_ID overrides organization_id
//   - STINT_LOG_LEVEL overrides log_level
//
// # Error Handling
//
// Load returns errors for unreadable or malformed files and for values that
// cannot be used: a page size that is not positive, a negative poll wait, an
// organization id that is not a UUID, or an unknown log level. A missing file
// is not an error. Validate checks the fields the API client cannot do
// without and is called once the caller knows it needs them.
package config
