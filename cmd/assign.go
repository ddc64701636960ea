package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"airspace-allocator/allocator"
	"airspace-allocator/config"
	"airspace-allocator/queues"
	"airspace-allocator/queues/stream"

	"github.com/spf13/cobra"
)

type assignOptions struct {
	rulesFile string
	date      string
	logLevel  string
	compact   bool
}

func newAssignCmd() *cobra.Command {
	opts := &assignOptions{}
	cmd := &cobra.Command{
		Use:   "assign <schedule.json|->",
		Short: "Run one allocation over a schedule request file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.rulesFile, "rules", "r", "", "rules file (.yaml/.json); defaults to the built-in table")
	cmd.Flags().StringVar(&opts.date, "date", "", "operating day (YYYY-MM-DD) when the request has none")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "print compact JSON")
	return cmd
}

func readRequest(cmd *cobra.Command, path string) (*queues.ScheduleRequest, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var req queues.ScheduleRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if req.RequestID == "" {
		name := "stdin"
		if path != "-" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		req.RequestID = "cli-" + name
	}
	return &req, nil
}

func runAssign(cmd *cobra.Command, path string, opts *assignOptions) error {
	closer := setLogger(opts.logLevel, "", cmd.ErrOrStderr())
	defer closer.Close()

	req, err := readRequest(cmd, path)
	if err != nil {
		return err
	}
	if req.Date == "" {
		req.Date = opts.date
	}

	rules := config.DefaultRules()
	if opts.rulesFile != "" {
		if rules, err = config.LoadRulesFile(opts.rulesFile); err != nil {
			return err
		}
	}
	engineCfg, err := rules.EngineConfig()
	if err != nil {
		return err
	}
	engine, err := allocator.NewEngine(engineCfg)
	if err != nil {
		return err
	}

	pub := stream.NewPublisher(cmd.OutOrStdout(), !opts.compact)
	if err := allocator.NewController(pub, engine, nil).Handle(cmd.Context(), req); err != nil {
		return err
	}
	if res := pub.Last(); res != nil && res.Status == queues.StatusFailure && res.ErrorMessage != nil {
		return fmt.Errorf("allocation failed: %s", *res.ErrorMessage)
	}
	return nil
}
