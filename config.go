/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Seednode/partyroom/party"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	envPrefix      = "PARTYROOM"
	envFileVar     = envPrefix + "_ENV_FILE"
	defaultEnvFile = ".env"
)

type Config struct {
	allowedOrigins       []string
	bind                 string
	broadcastActions     []string
	enforceHostAuthority bool
	maxMessageBytes      int64
	maxPlayers           int
	pingInterval         time.Duration
	port                 int
	prefix               string
	profile              bool
	sendBuffer           int
	tlsCert              string
	tlsKey               string
	verbose              bool
	version              bool

	log *zap.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxPlayers < 1 || c.maxPlayers > party.MaxCapacity {
		return fmt.Errorf("invalid max players (must be between 1-%d inclusive): %d", party.MaxCapacity, c.maxPlayers)
	}
	if c.maxMessageBytes < 1 {
		return fmt.Errorf("invalid max message size (must be positive): %d", c.maxMessageBytes)
	}
	if c.pingInterval <= 0 {
		return fmt.Errorf("invalid ping interval (must be positive): %s", c.pingInterval)
	}
	if c.sendBuffer < 1 {
		return fmt.Errorf("invalid send buffer (must be positive): %d", c.sendBuffer)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// logger never returns nil, so a zero Config is usable in tests.
func (c *Config) logger() *zap.Logger {
	if c.log == nil {
		return zap.NewNop()
	}
	return c.log
}

func (c *Config) hubOptions() party.Options {
	return party.Options{
		DefaultCapacity:      c.maxPlayers,
		BroadcastActions:     c.broadcastActions,
		EnforceHostAuthority: c.enforceHostAuthority,
	}
}

// loadEnvFile populates the environment from a dotenv file. Variables that
// are already set take precedence over the file.
func loadEnvFile() error {
	path, explicit := os.LookupEnv(envFileVar)
	if !explicit || path == "" {
		path = defaultEnvFile
	}

	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "partyroom",
		Short:         "Session coordinator for small multiplayer party games.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}

			log, err := newLogger(cfg.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cfg.log = log

			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origins", nil, "origins permitted to open websockets, empty allows all (env: PARTYROOM_ALLOWED_ORIGINS)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PARTYROOM_BIND)")
	fs.StringSliceVar(&cfg.broadcastActions, "broadcast-actions", party.DefaultBroadcastActions, "game actions echoed back to their sender (env: PARTYROOM_BROADCAST_ACTIONS)")
	fs.BoolVar(&cfg.enforceHostAuthority, "enforce-host-authority", false, "only accept authoritative state from the room host (env: PARTYROOM_ENFORCE_HOST_AUTHORITY)")
	fs.Int64Var(&cfg.maxMessageBytes, "max-message-bytes", 64*1024, "largest inbound websocket message accepted (env: PARTYROOM_MAX_MESSAGE_BYTES)")
	fs.IntVar(&cfg.maxPlayers, "max-players", party.MaxCapacity, "room capacity when a client does not request one (env: PARTYROOM_MAX_PLAYERS)")
	fs.DurationVar(&cfg.pingInterval, "ping-interval", 30*time.Second, "interval between websocket keepalive pings (env: PARTYROOM_PING_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PARTYROOM_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PARTYROOM_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PARTYROOM_PROFILE)")
	fs.IntVar(&cfg.sendBuffer, "send-buffer", 64, "outbound messages queued per connection before dropping (env: PARTYROOM_SEND_BUFFER)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PARTYROOM_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PARTYROOM_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PARTYROOM_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PARTYROOM_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("partyroom v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
