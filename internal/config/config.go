// Package config holds the daemon configuration: HTTP listen address, the
// filesystem directories for uploads and stamped outputs, and the Fabric
// connection block pointing at the identity and TLS artifacts produced by the
// network deployment step.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Fabric describes how to reach the deployed registry chaincode. The cert,
// key and TLS cert paths reference on-disk artifacts created when the channel
// was provisioned; they are read once at startup.
type Fabric struct {
	MSPID        string `json:"mspId"`
	CertPath     string `json:"certPath"`
	KeyPath      string `json:"keyPath"`
	TLSCertPath  string `json:"tlsCertPath"`
	PeerEndpoint string `json:"peerEndpoint"`
	GatewayPeer  string `json:"gatewayPeer"` // TLS server name override
	Channel      string `json:"channel"`
	Chaincode    string `json:"chaincode"`
}

type Config struct {
	ListenAddr   string `json:"listenAddr"`
	UploadDir    string `json:"uploadDir"`
	CertifiedDir string `json:"certifiedDir"`
	QRDir        string `json:"qrDir"`
	LogLevel     string `json:"logLevel"`
	DevMode      bool   `json:"devMode"` // in-memory registry instead of Fabric
	Fabric       Fabric `json:"fabric"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		ListenAddr:   ":8080",
		UploadDir:    "data/uploads",
		CertifiedDir: "data/certified",
		QRDir:        "data/qrcodes",
		LogLevel:     "info",
		Fabric: Fabric{
			MSPID:        "Org1MSP",
			CertPath:     "deploy/id/cert.pem",
			KeyPath:      "deploy/id/key.pem",
			TLSCertPath:  "deploy/tls/ca.crt",
			PeerEndpoint: "localhost:7051",
			GatewayPeer:  "peer0.org1.example.com",
			Channel:      "docproof-channel",
			Chaincode:    "docproof",
		},
	}
}

// Load reads cfg from the JSON file at path, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("config: failed to read %s: %w", path, err)
			}
		} else if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values from the process environment. Only set
// variables override; empty values are ignored.
func (c *Config) applyEnv() {
	setIfPresent := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIfPresent("DOCPROOF_LISTEN_ADDR", &c.ListenAddr)
	setIfPresent("DOCPROOF_UPLOAD_DIR", &c.UploadDir)
	setIfPresent("DOCPROOF_CERTIFIED_DIR", &c.CertifiedDir)
	setIfPresent("DOCPROOF_QR_DIR", &c.QRDir)
	setIfPresent("DOCPROOF_LOG_LEVEL", &c.LogLevel)
	setIfPresent("DOCPROOF_FABRIC_MSP_ID", &c.Fabric.MSPID)
	setIfPresent("DOCPROOF_FABRIC_CERT_PATH", &c.Fabric.CertPath)
	setIfPresent("DOCPROOF_FABRIC_KEY_PATH", &c.Fabric.KeyPath)
	setIfPresent("DOCPROOF_FABRIC_TLS_CERT_PATH", &c.Fabric.TLSCertPath)
	setIfPresent("DOCPROOF_FABRIC_PEER_ENDPOINT", &c.Fabric.PeerEndpoint)
	setIfPresent("DOCPROOF_FABRIC_GATEWAY_PEER", &c.Fabric.GatewayPeer)
	setIfPresent("DOCPROOF_FABRIC_CHANNEL", &c.Fabric.Channel)
	setIfPresent("DOCPROOF_FABRIC_CHAINCODE", &c.Fabric.Chaincode)
	if v := os.Getenv("DOCPROOF_DEV_MODE"); v == "1" || v == "true" {
		c.DevMode = true
	}
}

// EnsureDirs creates the upload, certified-output and QR cache directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.UploadDir, c.CertifiedDir, c.QRDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
