package app

import (
	"io"

	"expense-ledger/internal/config"
	applog "expense-ledger/internal/log"
)

// Configure loads the configuration, applies an explicit -db flag on top of
// it and installs the process logger writing to logOut.
func Configure(configPath, dbPath, component string, logOut io.Writer) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	logCfg := applog.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Log.Format
	logCfg.Component = component
	if logOut != nil {
		logCfg.Output = logOut
	}
	applog.Setup(logCfg)
	return cfg, nil
}
