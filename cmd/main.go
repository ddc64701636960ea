package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var version = "source"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "airspace-allocator",
		Short:         "Assigns frequency pairs and training airspace to a day's flights",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newAssignCmd())
	return root
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setLogger configures the global zerolog logger. With a log file the output is
// teed into a size-rotated file.
func setLogger(level, file string, out io.Writer) io.Closer {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	switch {
	case os.Getenv("DEBUG") != "":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(lvl)
	}

	if file == "" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return nopCloser{}
	}
	rot := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    64, // MB
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(out, rot)).With().Timestamp().Logger()
	return rot
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}
