package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/studyhub-tz/studyhub/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals
// are plain integer seconds so the file stays editable by hand.
type JsonConfig struct {
	ServerEndpointAddr  string `json:"server_endpoint_addr"`
	DatabaseDSN         string `json:"database_dsn"`
	DownloadDir         string `json:"download_dir"`
	OnlineCheckInterval int    `json:"online_check_interval"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Only fields present in the file override the current values. Panics on
// read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.DownloadDir != "" {
		cfg.DownloadDir = jc.DownloadDir
	}
	if jc.OnlineCheckInterval > 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval) * time.Second
	}
}
