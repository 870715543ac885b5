package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type GameConfig struct {
	SessionLength       int     `json:"session_length"`
	TargetNet           int     `json:"target_net"`
	BalanceTolerance    float64 `json:"balance_tolerance"`
	AttemptBudget       int     `json:"attempt_budget"`
	BatchSize           int     `json:"batch_size"`
	SamplerWorkers      int     `json:"sampler_workers"`
	SolverNodeBudget    int64   `json:"solver_node_budget"`
	TurnDurationSeconds int     `json:"turn_duration_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before seating bots at a partially filled table.
	BotAutoFillDelaySeconds int    `json:"bot_auto_fill_delay_seconds"`
	BotMinDelaySeconds      int    `json:"bot_min_delay_sec"`
	BotMaxDelaySeconds      int    `json:"bot_max_delay_sec"`
	BotsEnabled             bool   `json:"bots_enabled"`
	TokenSecret             string `json:"token_secret"`
	TokenIssuer             string `json:"token_issuer"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// Defaults returns the configuration used when no file is loaded.
func Defaults() GameConfig {
	return GameConfig{
		SessionLength:           16,
		TargetNet:               0,
		BalanceTolerance:        300,
		AttemptBudget:           200,
		BatchSize:               8,
		TurnDurationSeconds:     30,
		BotAutoFillDelaySeconds: 10,
		BotMinDelaySeconds:      1,
		BotMaxDelaySeconds:      3,
		BotsEnabled:             true,
		TokenIssuer:             "chicago",
	}
}

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c := Defaults()
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, falling back to
// defaults when no file was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Defaults()
	}
	return *cfg
}
