package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Config is the full application configuration. Every tuning knob the
// core consumes lives here; nothing is hard-coded in the pipeline.
type Config struct {
	Log        zap.Config       `yaml:"log"`
	Feed       FeedConfig       `yaml:"feed"`
	Store      StoreConfig      `yaml:"store"`
	Notifier   NotifierConfig   `yaml:"notifier"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Alerts     AlertConfig      `yaml:"alerts"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// FeedConfig selects and configures the launch/outcome feed adapter.
type FeedConfig struct {
	// Mode is one of "ws", "kafka", "stub".
	Mode  string      `yaml:"mode"`
	WS    WSConfig    `yaml:"ws"`
	Kafka KafkaConfig `yaml:"kafka"`
}

// WSConfig configures the WebSocket launch feed.
type WSConfig struct {
	URL                string `yaml:"url"`
	ReadTimeoutSeconds int    `yaml:"read_timeout_seconds"`
	PingSeconds        int    `yaml:"ping_seconds"`
}

// KafkaConfig configures the Kafka launch/outcome feed.
type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	LaunchTopic  string   `yaml:"launch_topic"`
	OutcomeTopic string   `yaml:"outcome_topic"`
	GroupID      string   `yaml:"group_id"`
}

// StoreConfig selects the score store backend.
type StoreConfig struct {
	// Backend is "memory" or "postgres".
	Backend     string `yaml:"backend"`
	PostgresDSN string `yaml:"postgres_dsn"`
	// ClickhouseDSN enables the optional snapshot archive when set.
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// NotifierConfig configures alert delivery.
type NotifierConfig struct {
	WebhookURL     string `yaml:"webhook_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     uint64 `yaml:"max_retries"`
}

// AggregatorConfig holds windowing and velocity-classification
// parameters for the wallet statistics aggregator.
type AggregatorConfig struct {
	// SuccessThreshold is the peak market cap (USD) above which a
	// launch counts as successful.
	SuccessThreshold float64 `yaml:"success_threshold"`

	ShortWindowDays  int `yaml:"short_window_days"`
	MediumWindowDays int `yaml:"medium_window_days"`
	LongWindowDays   int `yaml:"long_window_days"`

	// Velocity classification boundaries.
	SpammerMaxDaily       int     `yaml:"spammer_max_daily"`
	HighFrequencyAvgDaily float64 `yaml:"high_frequency_avg_daily"`
	ModerateAvgDaily      float64 `yaml:"moderate_avg_daily"`
}

// SessionWindow is a UTC trading-session window. A window may wrap
// midnight (StartHour > EndHour).
type SessionWindow struct {
	Name      string `yaml:"name"`
	StartHour int    `yaml:"start_hour"`
	EndHour   int    `yaml:"end_hour"`
	// Strategic windows earn the time-pattern concentration bonus.
	Strategic bool `yaml:"strategic"`
}

// Contains reports whether the UTC hour falls inside the window.
func (w SessionWindow) Contains(hour int) bool {
	if w.StartHour <= w.EndHour {
		return hour >= w.StartHour && hour < w.EndHour
	}
	// Wraps midnight.
	return hour >= w.StartHour || hour < w.EndHour
}

// Weights is the composite weight table. The composite is normalized by
// the weight sum, so re-tuning cannot push the score out of [0,100].
type Weights struct {
	Success     float64 `yaml:"success"`
	InverseScam float64 `yaml:"inverse_scam"`
	TimePattern float64 `yaml:"time_pattern"`
	Velocity    float64 `yaml:"velocity"`
	Network     float64 `yaml:"network"`
	Momentum    float64 `yaml:"momentum"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Success + w.InverseScam + w.TimePattern + w.Velocity + w.Network + w.Momentum
}

// RiskThresholds drive the risk rating, evaluated scam-branch first in
// fixed EXTREME > HIGH > MEDIUM order.
type RiskThresholds struct {
	ExtremeScam  float64 `yaml:"extreme_scam"`
	ExtremeScore float64 `yaml:"extreme_score"`
	HighScam     float64 `yaml:"high_scam"`
	HighScore    float64 `yaml:"high_score"`
	MediumScam   float64 `yaml:"medium_scam"`
	MediumScore  float64 `yaml:"medium_score"`
}

// TierThresholds drive the developer tier classification.
type TierThresholds struct {
	EliteScore     float64 `yaml:"elite_score"`
	EliteSuccesses int     `yaml:"elite_successes"`
	ProScore       float64 `yaml:"pro_score"`
	AmateurScore   float64 `yaml:"amateur_score"`
}

// ScoringConfig parameterizes the scoring engine.
type ScoringConfig struct {
	Version  string          `yaml:"version"`
	Weights  Weights         `yaml:"weights"`
	Sessions []SessionWindow `yaml:"sessions"`
	Risk     RiskThresholds  `yaml:"risk"`
	Tier     TierThresholds  `yaml:"tier"`

	// Component thresholds.
	ConsistencyBonus   float64 `yaml:"consistency_bonus"`    // hour-entropy consistency above this earns +20
	SessionShare       float64 `yaml:"session_share"`        // strategic-session share above this earns +15
	WeekendShare       float64 `yaml:"weekend_share"`        // weekend share above this costs 10
	BotLikelihood      float64 `yaml:"bot_likelihood"`       // seed-uniformity signal above this is bot-like
	FastBondMinutes    float64 `yaml:"fast_bond_minutes"`    // graduations faster than this look manipulated
	NaturalBondMinutes float64 `yaml:"natural_bond_minutes"` // lower bound of natural bonding time
	NaturalBondMaxMin  float64 `yaml:"natural_bond_max_minutes"`
	MinSeedAmount      float64 `yaml:"min_seed_amount"` // average seeds below this (SOL) look throwaway
	FastIntervalMin    float64 `yaml:"fast_interval_minutes"`
	SuccessBonusCount  int     `yaml:"success_bonus_count"`
	SuccessBonusRate   float64 `yaml:"success_bonus_rate"`
	SerialGraduations  int     `yaml:"serial_graduations"`
	LinkStrengthFloor  float64 `yaml:"link_strength_floor"` // network edges at or below this are ignored
}

// AlertConfig holds the alert policy thresholds.
type AlertConfig struct {
	MomentumHigh      float64 `yaml:"momentum_high"`      // momentum component above this plus...
	CompositeHigh     float64 `yaml:"composite_high"`     // ...composite above this emits HIGH
	CompositeStandard float64 `yaml:"composite_standard"` // composite above this emits STANDARD
}

// PipelineConfig controls the runner.
type PipelineConfig struct {
	Workers                  int `yaml:"workers"`
	RecomputeIntervalMinutes int `yaml:"recompute_interval_minutes"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig carries the documented defaults: success threshold
// 100k, 7/30/90 day windows, Asia 22-02 / EU 06-10 / US 13-17 UTC
// sessions, and the v2.0 weight table.
var DefaultConfig = Config{
	Log: zap.NewProductionConfig(),
	Feed: FeedConfig{
		Mode: "stub",
		WS:   WSConfig{ReadTimeoutSeconds: 60, PingSeconds: 30},
	},
	Store: StoreConfig{Backend: "memory"},
	Notifier: NotifierConfig{
		TimeoutSeconds: 10,
		MaxRetries:     3,
	},
	Aggregator: AggregatorConfig{
		SuccessThreshold:      100_000,
		ShortWindowDays:       7,
		MediumWindowDays:      30,
		LongWindowDays:        90,
		SpammerMaxDaily:       5,
		HighFrequencyAvgDaily: 2.0,
		ModerateAvgDaily:      0.5,
	},
	Scoring: ScoringConfig{
		Version: "v2.0",
		Weights: Weights{
			Success:     0.15,
			InverseScam: 0.15,
			TimePattern: 0.10,
			Velocity:    0.10,
			Network:     0.05,
			Momentum:    0.05,
		},
		Sessions: []SessionWindow{
			{Name: "asia", StartHour: 22, EndHour: 2, Strategic: true},
			{Name: "eu", StartHour: 6, EndHour: 10},
			{Name: "us", StartHour: 13, EndHour: 17, Strategic: true},
		},
		Risk: RiskThresholds{
			ExtremeScam:  75,
			ExtremeScore: 25,
			HighScam:     50,
			HighScore:    40,
			MediumScam:   30,
			MediumScore:  60,
		},
		Tier: TierThresholds{
			EliteScore:     80,
			EliteSuccesses: 5,
			ProScore:       60,
			AmateurScore:   40,
		},
		ConsistencyBonus:   0.7,
		SessionShare:       0.6,
		WeekendShare:       0.6,
		BotLikelihood:      0.7,
		FastBondMinutes:    10,
		NaturalBondMinutes: 30,
		NaturalBondMaxMin:  180,
		MinSeedAmount:      1.0,
		FastIntervalMin:    10,
		SuccessBonusCount:  5,
		SuccessBonusRate:   0.3,
		SerialGraduations:  5,
		LinkStrengthFloor:  0.3,
	},
	Alerts: AlertConfig{
		MomentumHigh:      80,
		CompositeHigh:     60,
		CompositeStandard: 70,
	},
	Pipeline: PipelineConfig{
		Workers:                  4,
		RecomputeIntervalMinutes: 60,
	},
	Metrics: MetricsConfig{
		Enabled:    true,
		ListenAddr: ":9090",
	},
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg := DefaultConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field invariants.
func (c *Config) Validate() error {
	switch c.Feed.Mode {
	case "ws", "kafka", "stub":
	default:
		return fmt.Errorf("unknown feed mode %q", c.Feed.Mode)
	}
	if c.Feed.Mode == "ws" && c.Feed.WS.URL == "" {
		return fmt.Errorf("feed mode ws requires ws.url")
	}
	if c.Feed.Mode == "kafka" {
		if len(c.Feed.Kafka.Brokers) == 0 {
			return fmt.Errorf("feed mode kafka requires brokers")
		}
		if c.Feed.Kafka.LaunchTopic == "" {
			return fmt.Errorf("feed mode kafka requires launch_topic")
		}
	}

	switch c.Store.Backend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == "postgres" && c.Store.PostgresDSN == "" {
		return fmt.Errorf("store backend postgres requires postgres_dsn")
	}

	if c.Aggregator.SuccessThreshold <= 0 {
		return fmt.Errorf("success_threshold must be positive")
	}
	if c.Aggregator.ShortWindowDays <= 0 || c.Aggregator.MediumWindowDays <= 0 || c.Aggregator.LongWindowDays <= 0 {
		return fmt.Errorf("window sizes must be positive")
	}
	if c.Aggregator.ShortWindowDays > c.Aggregator.MediumWindowDays ||
		c.Aggregator.MediumWindowDays > c.Aggregator.LongWindowDays {
		return fmt.Errorf("windows must be ordered short <= medium <= long")
	}

	if c.Scoring.Weights.Sum() <= 0 {
		return fmt.Errorf("scoring weights must sum to a positive total")
	}
	for _, s := range c.Scoring.Sessions {
		if s.StartHour < 0 || s.StartHour > 23 || s.EndHour < 0 || s.EndHour > 23 {
			return fmt.Errorf("session %q has hours outside 0-23", s.Name)
		}
	}

	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline workers must be positive")
	}
	if c.Pipeline.RecomputeIntervalMinutes <= 0 {
		return fmt.Errorf("recompute_interval_minutes must be positive")
	}
	return nil
}
