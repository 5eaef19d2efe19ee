package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/devraj-sharma/chunkvault/config"
	"github.com/devraj-sharma/chunkvault/internal/datanode"
	"github.com/devraj-sharma/chunkvault/pkg/env"
	"github.com/devraj-sharma/chunkvault/pkg/logging"
)

func main() {
	configDir := flag.String("config", "./config", "directory containing config.yaml")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-config dir] <node_id>\n", os.Args[0])
		os.Exit(1)
	}
	nodeID, err := strconv.Atoi(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "node_id must be an integer, got %q\n", flag.Arg(0))
		os.Exit(1)
	}

	env.LoadEnv()
	config.LoadConfig(*configDir)
	logging.InitLogger(env.GetEnv("DEBUG", "") == "true")
	log := logging.Log

	port := config.Config.DataNodeBasePort + nodeID
	storagePath := fmt.Sprintf("./data_node_%d", nodeID)

	addr := fmt.Sprintf(":%d", port)
	store, err := datanode.NewStore(storagePath, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open chunk store")
	}

	node := datanode.NewNode(nodeID, addr, store, log)

	heartbeatInterval := time.Duration(config.Config.HeartbeatIntervalSecs) * time.Second
	go node.SendHeartbeats(config.Config.MasterAddr, heartbeatInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- node.Serve()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.WithError(err).Error("data node server stopped")
		os.Exit(1)
	case <-sig:
		log.Info("shutting down on signal")
		os.Exit(0)
	}
}
