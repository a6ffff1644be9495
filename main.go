package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/ElrondNetwork/elrond-go-logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aliakgoz/BingoBase/config"
	"github.com/aliakgoz/BingoBase/keeper"
	"github.com/aliakgoz/BingoBase/network"
	"github.com/aliakgoz/BingoBase/utils"
)

var (
	log = logger.GetOrCreate("main")

	configFile = cli.StringFlag{
		Name:  "config",
		Usage: "Configuration file to load",
		Value: utils.DefaultConfigPath,
	}
	logLevel = cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level patterns, eg. *:INFO,keeper:DEBUG",
		Value: "*:INFO",
	}
	logFile = cli.StringFlag{
		Name:  "log-file",
		Usage: "File to mirror the logs into, rotated in place (empty disables)",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "bingobase-keeper"
	app.Usage = "Unattended keeper driving the on-chain bingo rounds"
	app.Flags = []cli.Flag{configFile, logLevel, logFile}
	app.Action = run

	err := app.Run(os.Args)
	if err != nil {
		log.Error("application stopped", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	err := logger.SetLogLevel(c.GlobalString(logLevel.Name))
	if err != nil {
		return err
	}
	if path := c.GlobalString(logFile.Name); path != "" {
		rotated := &lumberjack.Logger{Filename: path, MaxSize: 64, MaxBackups: 4}
		err = logger.AddLogObserver(rotated, &logger.PlainFormatter{})
		if err != nil {
			return err
		}
	}

	cfg, err := config.NewConfig(c.GlobalString(configFile.Name))
	if err != nil {
		log.Error("can not read configuration", "error", err)
		return err
	}

	networkManager, err := network.NewNetworkManager(cfg)
	if err != nil {
		log.Error("can not create network manager", "error", err)
		return err
	}

	store, err := keeper.NewCheckpointStore(cfg.Keeper.CheckpointPath)
	if err != nil {
		log.Error("can not open checkpoint store", "path", cfg.Keeper.CheckpointPath, "error", err)
		return err
	}

	k, err := keeper.New(cfg, networkManager, store, time.Now)
	if err != nil {
		log.Error("can not create keeper", "error", err)
		return err
	}
	err = k.Start()
	if err != nil {
		return err
	}

	if cfg.Keeper.MetricsAddress != "" {
		go serveMetrics(cfg.Keeper.MetricsAddress)
	}

	log.Info("keeper up",
		"signer", networkManager.SignerAddress(),
		"contract", utils.ShortenAddress(cfg.ContractAddress))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	log.Info("shutting down...")

	return k.Close()
}

func serveMetrics(address string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Info("metrics listener up", "address", address)
	err := http.ListenAndServe(address, mux)
	if err != nil {
		log.Error("metrics listener stopped", "error", err)
	}
}
