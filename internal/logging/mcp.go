package logging

import (
	"log/slog"
)

// SetupServerMode installs a file-only default logger for the MCP server.
// stdout and stderr stay untouched because stdio carries JSON-RPC.
func SetupServerMode(level, path string) (func(), error) {
	cfg := DefaultConfig()
	cfg.Level = level
	if path != "" {
		cfg.FilePath = path
	}
	cfg.WriteToStderr = false

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	slog.Info("server_logging_initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))
	return cleanup, nil
}
