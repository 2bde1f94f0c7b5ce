// Fincal is a local financial calendar: it syncs company earnings dates,
// economic releases, product launches and crypto events into a SQLite
// database and manages reminders on top of it.
package main

import (
	"fmt"
	"os"

	"fincal/internal/cli"
	"fincal/internal/config"
	"fincal/internal/logging"
)

func main() {
	configDir := configDirFromArgs(os.Args[1:])

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fincal: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd, cleanup := cli.NewRootCmd(cfg, logger)
	err = rootCmd.Execute()
	cleanup()
	if err != nil {
		logger.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configDirFromArgs pre-scans for --config so the config is loaded before
// cobra parses flags.
func configDirFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if len(arg) > len("--config=") && arg[:len("--config=")] == "--config=" {
			return arg[len("--config="):]
		}
	}
	return ""
}
