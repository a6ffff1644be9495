package config

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/aliakgoz/BingoBase/data"
)

var (
	errMissingSeedphrase      = errors.New("missing seedphrase")
	errMissingContractAddress = errors.New("missing contract address")
	errMissingProxy           = errors.New("missing proxy url")
	errStallBelowConfirm      = errors.New("stallThresholdSec must exceed confirmTimeoutSec")
)

// NewConfig - reads the application configuration from the provided path
// and returns an AppConfig struct or an error if something goes wrong
func NewConfig(configPath string) (*data.AppConfig, error) {
	bytes, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &data.AppConfig{}
	err = json.Unmarshal(bytes, cfg)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	err = validate(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *data.AppConfig) {
	k := &cfg.Keeper
	if k.PollInterval <= 0 {
		k.PollInterval = 6
	}
	if k.ConfirmTimeout <= 0 {
		k.ConfirmTimeout = 30
	}
	if k.StallThreshold <= 0 {
		k.StallThreshold = 180
	}
	if k.MaxAttempts <= 0 {
		k.MaxAttempts = 5
	}
	if k.BaseGasPrice == 0 {
		k.BaseGasPrice = 1000000000
	}
	if k.GasBumpPercent == 0 {
		k.GasBumpPercent = 50
	}
	if k.MaxGasPrice == 0 {
		k.MaxGasPrice = 10000000000
	}
	if k.CheckpointPath == "" {
		k.CheckpointPath = "checkpoints"
	}
	if k.CheckpointWindow == 0 {
		k.CheckpointWindow = 64
	}
	if k.NextRoundDelay <= 0 {
		k.NextRoundDelay = 60
	}

	g := &cfg.Game
	if g.EntryFee == "" {
		g.EntryFee = "1000000000000000000"
	}
	if g.JoinWindow <= 0 {
		g.JoinWindow = 300
	}
	if g.DrawInterval <= 0 {
		g.DrawInterval = 10
	}
	if g.NumberSpace == 0 {
		g.NumberSpace = 90
	}
	if g.CardSize == 0 {
		g.CardSize = 15
	}
}

func validate(cfg *data.AppConfig) error {
	if cfg.Seedphrase == "" {
		return errMissingSeedphrase
	}
	if cfg.ContractAddress == "" {
		return errMissingContractAddress
	}
	if cfg.Network.Proxy == "" {
		return errMissingProxy
	}
	// the watchdog must never fire mid-replacement cycle
	if cfg.Keeper.StallThreshold <= cfg.Keeper.ConfirmTimeout {
		return errStallBelowConfirm
	}

	return nil
}
