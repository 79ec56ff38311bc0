// Package config loads the dashboard configuration.
//
// Values come from environment variables (prefix MKT_) and an optional YAML
// file; an environment variable that is set always wins over the file.
//
//	MKT_SERVER_PORT=8080
//	MKT_PATHS_DATA_DIR=/srv/marketing_dataset
//	MKT_LOGGING_LEVEL=debug
//	MKT_DATA_MAX_ROW_ISSUES=50
//
// The config file is looked up in MKT_CONFIG_FILE, then config.yaml and
// configs/config.yaml relative to the working directory.
//
// Relative paths (data directory, logs directory) are resolved against the
// directory of the running executable, never the working directory, so the
// dashboard behaves the same no matter where it is started from.
package config
