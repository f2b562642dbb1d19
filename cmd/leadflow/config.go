package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all leadflow configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	WorkflowPath string `json:"workflow_path"`
	DBPath       string `json:"db_path"`
	ResultsDir   string `json:"results_dir"`
	LogLevel     string `json:"log_level"`
	LogFormat    string `json:"log_format"`
	Model        string `json:"model"`
}

func defaultConfig() Config {
	return Config{
		WorkflowPath: "examples/workflow.json",
		DBPath:       filepath.Join(leadflowDir(), "leadflow.db"),
		ResultsDir:   "results",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

func leadflowDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".leadflow"
	}
	return filepath.Join(home, ".leadflow")
}

func settingsPath() string {
	return filepath.Join(leadflowDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("LEADFLOW_WORKFLOW"); v != "" {
		cfg.WorkflowPath = v
	}
	if v := os.Getenv("LEADFLOW_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LEADFLOW_RESULTS_DIR"); v != "" {
		cfg.ResultsDir = v
	}
	if v := os.Getenv("LEADFLOW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LEADFLOW_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("LEADFLOW_MODEL"); v != "" {
		cfg.Model = v
	}

	return cfg
}
