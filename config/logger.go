package config

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the node's zap.Logger from the Logger config block.
func NewLogger(cfg Logger) (*zap.Logger, error) {
	cc := zap.NewProductionConfig()
	if cfg.LogEncoding != "" {
		cc.Encoding = cfg.LogEncoding
	}
	cc.DisableStacktrace = true
	if cfg.LogPath != "" {
		cc.OutputPaths = []string{cfg.LogPath}
	}

	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.LogLevel))); err != nil {
			return nil, err
		}
	}
	cc.Level = zap.NewAtomicLevelAt(level)

	log, err := cc.Build()
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("module", "rustybit")), nil
}

// UserAgent renders name/major.minor.fixes[-suffix] in BIP0014 form:
// '/NAME:MAJOR.MINOR.FIXES[-SUFFIX]/' with '-' replaced by '_' in the
// version component.
func UserAgent(name string, major, minor, fixes int, suffix string) string {
	version := suffixedVersion(major, minor, fixes, suffix)
	return "/" + name + ":" + strings.ReplaceAll(version, "-", "_") + "/"
}

func suffixedVersion(major, minor, fixes int, suffix string) string {
	v := strconv.Itoa(major) + "." + strconv.Itoa(minor) + "." + strconv.Itoa(fixes)
	if suffix != "" {
		v += "-" + suffix
	}
	return v
}
