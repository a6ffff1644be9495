package utils

const (
	DefaultConfigPath = "config.json"
)
