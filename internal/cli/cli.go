// Package cli holds the flag and logging setup shared by the commands.
package cli

import (
	"flag"
	"log/slog"
	"os"

	"github.com/gogpu/hello"
)

// SetupLogging installs a text handler on stderr for the hello packages and
// as the slog default: Info, or Debug when verbose.
func SetupLogging(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	hello.SetLogger(logger)
	return logger
}

// LoadConfig returns hello.DefaultConfig, or the file at path on top of it.
func LoadConfig(path string) (hello.Config, error) {
	if path == "" {
		return hello.DefaultConfig(), nil
	}
	return hello.LoadConfig(path)
}

// Visited returns the names of the flags set on the command line, so that
// only those override config file values.
func Visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// Override applies opts for the flags in set. Keys are flag names.
func Override(cfg *hello.Config, set map[string]bool, opts map[string]hello.Option) {
	for name, opt := range opts {
		if set[name] {
			cfg.Apply(opt)
		}
	}
}
