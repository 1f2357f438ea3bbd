package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-kcp/session"
)

// pairConfig is the YAML configuration file. Both peers of the loopback pair
// share conv unless a side overrides it.
type pairConfig struct {
	Engine   string         `yaml:"engine,omitempty"`
	CacheDir string         `yaml:"cache_dir,omitempty"`
	A        session.Config `yaml:"a"`
	B        session.Config `yaml:"b"`
	Conv     uint32         `yaml:"conv"`
}

func defaultPairConfig() *pairConfig {
	return &pairConfig{A: session.DefaultConfig(), B: session.DefaultConfig()}
}

// loadConfig reads a pair configuration. Unknown keys are rejected.
func loadConfig(path string) (*pairConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*pairConfig, error) {
	cfg := &pairConfig{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.A.Conv == 0 {
		cfg.A.Conv = cfg.Conv
	}
	if cfg.B.Conv == 0 {
		cfg.B.Conv = cfg.Conv
	}
	cfg.A = cfg.A.Normalize()
	cfg.B = cfg.B.Normalize()
	return cfg, nil
}
