// Copyright 2026 The pureflashblade-mcp Authors

package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
	log "github.com/pureflashblade/pureflashblade-mcp/logger"
	"github.com/pureflashblade/pureflashblade-mcp/util"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. PUREFB_HOST
	EnvPrefix = "PUREFB"

	KeyHost           = "host"
	KeyAPIToken       = "api_token"
	KeyVerifySSL      = "verify_ssl"
	KeyRequestTimeout = "request_timeout"
	KeySessionTTL     = "session_ttl"
	KeyDefaultArray   = "default_array"
	KeyHTTPListen     = "http_listen"
	KeyArrays         = "arrays"

	// DefaultProfile names the profile built from the top level host and api_token
	DefaultProfile        = "default"
	DefaultRequestTimeout = 30 * time.Second
	DefaultSessionTTL     = 15 * time.Minute
	DefaultHTTPListen     = ":8080"
)

// ArrayProfile is a named FlashBlade the server may query without the caller passing credentials
type ArrayProfile struct {
	Host      string `mapstructure:"host"`
	APIToken  string `mapstructure:"api_token"`
	VerifySSL bool   `mapstructure:"verify_ssl"`
}

// Config is the resolved server configuration
type Config struct {
	RequestTimeout time.Duration
	SessionTTL     time.Duration
	DefaultArray   string
	HTTPListen     string
	Arrays         map[string]ArrayProfile
	// File is the configuration file in use, empty when running from the environment only
	File string
}

// FlagNames maps the keys that may be set from the command line to their flag names
var FlagNames = map[string]string{
	KeyRequestTimeout: "request-timeout",
	KeySessionTTL:     "session-ttl",
	KeyDefaultArray:   "default-array",
	KeyHTTPListen:     "listen",
}

// Load reads the configuration from file (optional), PUREFB_* environment variables and
// flags named in FlagNames, flags taking precedence over the environment and the file.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	log.Tracef(">>>>> Load, file=%s", file)
	defer log.Trace("<<<<< Load")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(KeySessionTTL, DefaultSessionTTL)
	v.SetDefault(KeyHTTPListen, DefaultHTTPListen)

	if flags != nil {
		for key, name := range FlagNames {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fberrors.NewError(fberrors.Internal, err)
				}
			}
		}
	}

	if file != "" {
		exists, isDir, err := util.FileExists(file)
		if err != nil {
			return nil, fberrors.NewError(fberrors.Internal, err)
		}
		if !exists || isDir {
			return nil, fberrors.NewErrorf(fberrors.NotFound, "config file %s not found", file)
		}
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fberrors.NewErrorf(fberrors.InvalidArgument, "unable to read config file %s: %v", file, err)
		}
		log.Debugf("using config file %s", v.ConfigFileUsed())
	}

	cfg := &Config{
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		SessionTTL:     v.GetDuration(KeySessionTTL),
		DefaultArray:   strings.ToLower(strings.TrimSpace(v.GetString(KeyDefaultArray))),
		HTTPListen:     v.GetString(KeyHTTPListen),
		Arrays:         map[string]ArrayProfile{},
		File:           v.ConfigFileUsed(),
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}

	profiles := map[string]ArrayProfile{}
	if err := v.UnmarshalKey(KeyArrays, &profiles); err != nil {
		return nil, fberrors.NewErrorf(fberrors.InvalidArgument, "invalid %s section: %v", KeyArrays, err)
	}
	if host := strings.TrimSpace(v.GetString(KeyHost)); host != "" {
		profiles[DefaultProfile] = ArrayProfile{
			Host:      host,
			APIToken:  v.GetString(KeyAPIToken),
			VerifySSL: v.GetBool(KeyVerifySSL),
		}
	}

	for name, p := range profiles {
		name = strings.ToLower(strings.TrimSpace(name))
		p.Host = strings.TrimSpace(p.Host)
		if p.Host == "" {
			return nil, fberrors.NewErrorf(fberrors.InvalidArgument, "array profile %s has no host", name)
		}
		token, err := util.DecodeBase64Credential(p.APIToken)
		if err != nil {
			return nil, fberrors.NewErrorf(fberrors.InvalidArgument, "array profile %s: %v", name, err)
		}
		if token == "" {
			return nil, fberrors.NewErrorf(fberrors.InvalidArgument, "array profile %s has no api_token", name)
		}
		p.APIToken = token
		cfg.Arrays[name] = p
	}

	if cfg.DefaultArray != "" {
		if _, ok := cfg.Arrays[cfg.DefaultArray]; !ok {
			return nil, fberrors.NewErrorf(fberrors.InvalidArgument, "default array %s is not a configured profile", cfg.DefaultArray)
		}
	}
	log.Infof("loaded %d array profiles", len(cfg.Arrays))
	return cfg, nil
}

// Profile returns the named profile. An empty name selects the default array: the one named
// by default_array, else the profile called default, else the only profile configured.
func (c *Config) Profile(name string) (ArrayProfile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" {
		p, ok := c.Arrays[name]
		if !ok {
			return ArrayProfile{}, fberrors.NewErrorf(fberrors.NotFound, "array %s is not configured", name)
		}
		return p, nil
	}
	if c.DefaultArray != "" {
		if p, ok := c.Arrays[c.DefaultArray]; ok {
			return p, nil
		}
	}
	if p, ok := c.Arrays[DefaultProfile]; ok {
		return p, nil
	}
	if len(c.Arrays) == 1 {
		for _, p := range c.Arrays {
			return p, nil
		}
	}
	return ArrayProfile{}, fberrors.NewError(fberrors.NotFound, "no default array configured")
}

// ProfileNames returns the configured profile names in sorted order
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Arrays))
	for name := range c.Arrays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p ArrayProfile) String() string {
	return fmt.Sprintf("host=%s verify_ssl=%t", p.Host, p.VerifySSL)
}
