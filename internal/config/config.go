// Package config loads and validates the node's TOML configuration file,
// covering the options table of §6 plus bind address, seed peers, and
// logging level. It is the "top-level configuration/entry point"
// collaborator — table and detector never import it, they only see the
// plain values threaded through from here.
//
// Grounded on the teacher's nested-struct Config/DefaultConfig idiom
// (internal/infra/gossip/swim.go's own Config/DefaultConfig pair), loaded
// with github.com/BurntSushi/toml the way the teacher's daemon layer does.
package config

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/meshring/swim/internal/domain"
)

// Duration is a time.Duration that decodes from a TOML string such as
// "500ms" or "5s", via encoding.TextUnmarshaler, rather than an integer
// count of nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", b, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Config is the full node configuration.
type Config struct {
	Bind    BindConfig    `toml:"bind"`
	Probe   ProbeConfig   `toml:"probe"`
	Cluster ClusterConfig `toml:"cluster"`
	Log     LogConfig     `toml:"log"`

	// RunID is not read from TOML; it is minted fresh at load time to tag
	// this process's structured log lines, matching the teacher's use of
	// google/uuid for ephemeral per-entity identifiers elsewhere.
	RunID string `toml:"-"`
}

// BindConfig controls the local UDP listen address.
type BindConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the configured bind address as a "host:port" string
// suitable for transport.Listen.
func (b BindConfig) Addr() string {
	host := b.Host
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, b.Port)
}

// ProbeConfig covers the recognized options of §6.
type ProbeConfig struct {
	PeriodTimeout        Duration `toml:"period_timeout"`
	PingTimeout          Duration `toml:"ping_timeout"`
	PingRequestGroupSize int      `toml:"ping_request_group_size"`
	SuspectTimeout       Duration `toml:"suspect_timeout"`
}

// ClusterConfig lists the seed peers dialed at startup (§9 open question:
// no dynamic join protocol, peers are seeded at construction only).
type ClusterConfig struct {
	Seeds []string `toml:"seeds"`
}

// SeedNodes parses Seeds into domain.Node values.
func (c ClusterConfig) SeedNodes() ([]domain.Node, error) {
	nodes := make([]domain.Node, 0, len(c.Seeds))
	for _, s := range c.Seeds {
		n, err := netip.ParseAddrPort(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSeed, s)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns conservative SWIM defaults, mirroring the typical
// values called out in §6's options table.
func DefaultConfig() Config {
	return Config{
		Bind: BindConfig{Host: "0.0.0.0", Port: 7946},
		Probe: ProbeConfig{
			PeriodTimeout:        Duration(time.Second),
			PingTimeout:          Duration(200 * time.Millisecond),
			PingRequestGroupSize: 3,
			SuspectTimeout:       Duration(5 * time.Second),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a TOML file at path on top of DefaultConfig, so any option
// the file omits keeps its default, then validates the result and mints a
// fresh RunID.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.RunID = uuid.NewString()
	return cfg, nil
}

// Validate checks the invariants §6 and §8 require. Per §8's boundary
// case, pingTimeout >= periodTimeout is a misconfiguration the spec does
// not require rejecting — but since it silently disables indirect probing
// entirely, we choose to reject it here rather than only warn, one of the
// two spec-permitted behaviors (see DESIGN.md).
func (c Config) Validate() error {
	if c.Bind.Port == 0 {
		return domain.ErrNoBindPort
	}
	if c.Probe.PeriodTimeout.Duration() <= 0 || c.Probe.PingTimeout.Duration() <= 0 {
		return domain.ErrPingTooSlow
	}
	if c.Probe.PingTimeout.Duration() >= c.Probe.PeriodTimeout.Duration() {
		return domain.ErrPingTooSlow
	}
	if _, err := c.Cluster.SeedNodes(); err != nil {
		return err
	}
	return nil
}
