package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type LogInput struct {
	Level  string
	Format string
}

func bindLogInput(cmd *cobra.Command, input *LogInput) {
	cmd.PersistentFlags().StringVar(&input.Level, "log.level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&input.Format, "log.format", "text", "log format: text or json")
}

func newLogger(input *LogInput) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(input.Level)
	if err != nil {
		return nil, fmt.Errorf("parse --log.level: %w", err)
	}

	l := logrus.New()
	l.Out = os.Stderr
	l.Level = level

	switch input.Format {
	case "text":
		l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	case "json":
		l.Formatter = &logrus.JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown --log.format %q", input.Format)
	}

	return l, nil
}
