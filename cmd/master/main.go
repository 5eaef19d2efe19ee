package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devraj-sharma/chunkvault/config"
	"github.com/devraj-sharma/chunkvault/internal/master"
	"github.com/devraj-sharma/chunkvault/pkg/env"
	"github.com/devraj-sharma/chunkvault/pkg/logging"
)

func main() {
	configDir := flag.String("config", "./config", "directory containing config.yaml")
	flag.Parse()

	env.LoadEnv()
	config.LoadConfig(*configDir)
	logging.InitLogger(env.GetEnv("DEBUG", "") == "true")
	log := logging.Log

	cfg := master.Config{
		ReplicationFactor: config.Config.ReplicationFactor,
		HeartbeatTimeout:  time.Duration(config.Config.HeartbeatTimeoutSeconds) * time.Second,
		HeartbeatPoll:     time.Duration(config.Config.HeartbeatPollSeconds) * time.Second,
		HealerInterval:    time.Duration(config.Config.HealerIntervalSeconds) * time.Second,
		DialTimeout:       time.Duration(config.Config.DialTimeoutSeconds) * time.Second,
		MetadataPath:      config.Config.MetadataPath,
		MetadataKey:       config.Config.MetadataKey,
		AuditDBPath:       config.Config.AuditDBPath,
		AuditEnabled:      config.Config.AuditEnabled,
	}

	m := master.New(cfg, log)
	for id := 1; id <= config.Config.DataNodeCount; id++ {
		port := config.Config.DataNodeBasePort + id
		m.RegisterNode(id, fmt.Sprintf("127.0.0.1:%d", port))
	}
	if err := m.LoadMetadata(); err != nil {
		log.WithError(err).Fatal("failed to load metadata")
	}
	if cfg.AuditEnabled {
		if err := m.EnableAudit(); err != nil {
			log.WithError(err).Fatal("failed to open audit log")
		}
	}
	defer m.Close()

	stop := make(chan struct{})
	go m.RunHeartbeatMonitor(stop)
	go m.RunPeriodicHealer(stop)

	addr := fmt.Sprintf(":%d", config.Config.MasterPort)
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Serve(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.WithError(err).Error("master server stopped")
		os.Exit(1)
	case <-sig:
		log.Info("shutting down on signal")
		close(stop)
		if err := m.SaveMetadata(); err != nil {
			log.WithError(err).Error("failed to persist metadata on shutdown")
		}
		os.Exit(0)
	}
}
