package data

// AppConfig holds the application configuration read from config.json
type AppConfig struct {
	Seedphrase      string `json:"seed"`
	ContractAddress string `json:"contractAddress"`
	Network         struct {
		Proxy               string `json:"proxy"`
		Indexer             string `json:"indexer"`
		ExplorerTransaction string `json:"explorerTransaction"`
	} `json:"network"`
	Keeper struct {
		PollInterval     int64   `json:"pollIntervalSec"`
		ConfirmTimeout   int64   `json:"confirmTimeoutSec"`
		StallThreshold   int64   `json:"stallThresholdSec"`
		MaxAttempts      int     `json:"maxAttempts"`
		BaseGasPrice     uint64  `json:"baseGasPrice"`
		GasBumpPercent   uint64  `json:"gasBumpPercent"`
		MaxGasPrice      uint64  `json:"maxGasPrice"`
		CheckpointPath   string  `json:"checkpointPath"`
		CheckpointWindow uint64  `json:"checkpointWindow"`
		MetricsAddress   string  `json:"metricsAddress"`
		NextRoundDelay   int64   `json:"nextRoundDelaySec"`
		MinSignerBalance float64 `json:"minSignerBalance"`
	} `json:"keeper"`
	Game struct {
		EntryFee     string `json:"entryFee"`
		JoinWindow   int64  `json:"joinWindowSec"`
		DrawInterval int64  `json:"drawIntervalSec"`
		NumberSpace  uint32 `json:"numberSpace"`
		CardSize     uint32 `json:"cardSize"`
	} `json:"game"`
}
