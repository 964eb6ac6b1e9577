package main

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-errors/errors"
	"github.com/privacybydesign/openvote/big"
	"github.com/privacybydesign/openvote/group"
	"github.com/sirupsen/logrus"
)

// config is the optional TOML file passed with --config. Every voter of a
// session must use the same group.
//
//	timeout = "30s"
//	log_level = "info"
//
//	[group]
//	modulus = "FFFFFFFF..."   # hexadecimal, empty for the default group
//	generator = 2
type config struct {
	Group struct {
		Modulus   string `toml:"modulus"`
		Generator int64  `toml:"generator"`
	} `toml:"group"`
	Timeout  string `toml:"timeout"`
	LogLevel string `toml:"log_level"`
}

func loadConfig(path string) (*config, error) {
	conf := &config{}
	if path == "" {
		return conf, nil
	}
	md, err := toml.DecodeFile(path, conf)
	if err != nil {
		return nil, errors.WrapPrefix(err, "failed to read config "+path, 0)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown keys in config %s: %v", path, undecoded)
	}
	return conf, nil
}

// buildGroup returns the configured group, or the default group when no
// modulus is set.
func (conf *config) buildGroup() (*group.Group, error) {
	if conf.Group.Modulus == "" {
		return group.Default(), nil
	}
	hex := strings.Join(strings.Fields(conf.Group.Modulus), "")
	p, ok := new(big.Int).SetString(strings.TrimPrefix(hex, "0x"), 16)
	if !ok {
		return nil, errors.Errorf("modulus %q is not hexadecimal", conf.Group.Modulus)
	}
	gen := conf.Group.Generator
	if gen == 0 {
		gen = 2
	}
	return group.BuildGroup(p, big.NewInt(gen))
}

// roundTimeout returns the configured timeout, with override taking
// precedence when it is non-zero.
func (conf *config) roundTimeout(override time.Duration) (time.Duration, error) {
	if override != 0 {
		return override, nil
	}
	if conf.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(conf.Timeout)
	if err != nil {
		return 0, errors.WrapPrefix(err, "invalid timeout", 0)
	}
	return d, nil
}

func (conf *config) logLevel(debug bool) (logrus.Level, error) {
	if debug {
		return logrus.DebugLevel, nil
	}
	if conf.LogLevel == "" {
		return logrus.InfoLevel, nil
	}
	return logrus.ParseLevel(conf.LogLevel)
}
