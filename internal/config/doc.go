// Package config loads server settings from an optional config.yaml and
// TASKBOARD_* environment variables using viper, and validates them with
// go-playground/validator before anything else starts.
package config
