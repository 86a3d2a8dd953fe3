package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/gpuctl/rpctl/pkg/serializer"
)

// outputFlags returns fresh --output, --format and --json flags. Flags carry
// parse state, so each command gets its own instances.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      "output",
			Aliases:   []string{"o"},
			Usage:     "output destination: file path, - for stdout, or cm://namespace/name",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"t"},
			Value:   string(serializer.FormatTable),
			Usage:   fmt.Sprintf("output format (%s); for -o files the extension decides unless set", strings.Join(serializer.SupportedFormats(), ", ")),
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "shorthand for --format json",
		},
	}
}

// parseOutputFormat extracts and validates the output format from CLI flags.
// --json wins over --format; without either, a file destination picks the
// format from its extension.
func parseOutputFormat(cmd *cli.Command, dest string) (serializer.Format, error) {
	if cmd.Bool("json") {
		return serializer.FormatJSON, nil
	}
	if !cmd.IsSet("format") && isFilePath(dest) {
		return serializer.FormatFromPath(dest), nil
	}
	return serializer.ParseFormat(cmd.String("format"))
}

func isStdout(dest string) bool {
	return dest == "" || dest == serializer.StdoutURI
}

func isFilePath(dest string) bool {
	return !isStdout(dest) && !strings.HasPrefix(dest, serializer.ConfigMapURIScheme)
}

// write serializes data to the destination selected by --output.
func (a *app) write(ctx context.Context, cmd *cli.Command, data any) error {
	dest := strings.TrimSpace(cmd.String("output"))
	format, err := parseOutputFormat(cmd, dest)
	if err != nil {
		return err
	}

	if isStdout(dest) {
		return serializer.NewWriter(format, a.stdout).Serialize(ctx, data)
	}
	if p, ok := data.(plainOutput); ok {
		p.disableColor()
	}

	ser, err := serializer.NewFileWriterOrStdout(format, dest)
	if err != nil {
		return err
	}
	if closer, ok := ser.(serializer.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close output", "error", err)
			}
		}()
	}

	if err := ser.Serialize(ctx, data); err != nil {
		return fmt.Errorf("failed to write output to %s: %w", dest, err)
	}
	slog.Debug("output written", "destination", dest, "format", format)
	return nil
}

// requireArgs returns the positional arguments, or an error naming what is missing.
func requireArgs(cmd *cli.Command, what string) ([]string, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return nil, fmt.Errorf("%s is required", what)
	}
	for _, arg := range args {
		if strings.TrimSpace(arg) == "" {
			return nil, fmt.Errorf("%s cannot be empty", what)
		}
	}
	return args, nil
}

// requireOneArg returns the single positional argument.
func requireOneArg(cmd *cli.Command, what string) (string, error) {
	args, err := requireArgs(cmd, what)
	if err != nil {
		return "", err
	}
	if len(args) > 1 {
		return "", fmt.Errorf("expected exactly one %s, got %d", what, len(args))
	}
	return args[0], nil
}
