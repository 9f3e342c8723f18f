// Package config provides centralized configuration management for clientpulse.
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file
//	3. Default values from struct tags (lowest priority)
//
// All environment variables use the CLIENTPULSE_ prefix followed by the
// section and field name:
//
//	CLIENTPULSE_SERVER_PORT=8080
//	CLIENTPULSE_LOGGING_LEVEL=debug
//	CLIENTPULSE_ANALYSIS_HIGH_VALUE_THRESHOLD=60000
//	CLIENTPULSE_ANALYSIS_CLV_DEDUPE=pair
//
// The YAML file is looked up in config.yaml, configs/config.yaml, or the path
// named by CLIENTPULSE_CONFIG_FILE.
package config
