package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration shared by the master and data node
// binaries. Fields only one role cares about are simply ignored by the
// other (a master never reads NodeID; a data node never reads
// ReplicationFactor).
type AppConfig struct {
	NodeID      int    `mapstructure:"node_id"`
	MasterAddr  string `mapstructure:"master_addr"`
	StoragePath string `mapstructure:"storage_path"`

	MasterPort       int `mapstructure:"master_port"`
	DataNodeBasePort int `mapstructure:"datanode_base_port"`
	DataNodeCount    int `mapstructure:"datanode_count"`

	ReplicationFactor       int    `mapstructure:"replication_factor"`
	HeartbeatTimeoutSeconds int    `mapstructure:"heartbeat_timeout_seconds"`
	HeartbeatPollSeconds    int    `mapstructure:"heartbeat_poll_seconds"`
	HeartbeatIntervalSecs   int    `mapstructure:"heartbeat_interval_seconds"`
	HealerIntervalSeconds   int    `mapstructure:"healer_interval_seconds"`
	DialTimeoutSeconds      int    `mapstructure:"dial_timeout_seconds"`
	MetadataPath            string `mapstructure:"metadata_path"`
	MetadataKey             string `mapstructure:"metadata_key"`
	AuditDBPath             string `mapstructure:"audit_db_path"`
	AuditEnabled            bool   `mapstructure:"audit_enabled"`
}

var Config *AppConfig

// LoadConfig reads config.yaml from path (if present) and layers environment
// variables and defaults on top, matching every node's bootstrap sequence.
func LoadConfig(path string) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AutomaticEnv()

	viper.SetDefault("node_id", 1)
	viper.SetDefault("master_addr", "127.0.0.1:5000")
	viper.SetDefault("storage_path", "./data")

	viper.SetDefault("master_port", 5000)
	viper.SetDefault("datanode_base_port", 5000)
	viper.SetDefault("datanode_count", 3)

	viper.SetDefault("replication_factor", 2)
	viper.SetDefault("heartbeat_timeout_seconds", 15)
	viper.SetDefault("heartbeat_poll_seconds", 5)
	viper.SetDefault("heartbeat_interval_seconds", 5)
	viper.SetDefault("healer_interval_seconds", 10)
	viper.SetDefault("dial_timeout_seconds", 5)
	viper.SetDefault("metadata_path", "./metadata.json")
	viper.SetDefault("metadata_key", "")
	viper.SetDefault("audit_db_path", "./master_audit_db")
	viper.SetDefault("audit_enabled", true)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("⚠️ Could not read config file, using defaults: %v", err)
	}

	var appConfig AppConfig
	if err := viper.Unmarshal(&appConfig); err != nil {
		log.Fatalf("❌ Unable to decode config into struct: %v", err)
	}

	Config = &appConfig

	fmt.Println("✅ Configuration loaded successfully.")
}
