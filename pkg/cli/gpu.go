package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	rperrors "github.com/gpuctl/rpctl/pkg/errors"
	"github.com/gpuctl/rpctl/pkg/gpu"
)

func listGPUTypesCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "list-gpu-types",
		Usage: "List the GPU types available on RunPod",
		Description: `Lists every GPU type with its memory, cloud availability and lowest
on-demand hourly price. Use the ID column as --gpu-type for create-pod.

Examples:
  rpctl list-gpu-types
  rpctl list-gpu-types --json
  rpctl list-gpu-types -o gpus.yaml -t yaml`,
		Flags: outputFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			types, err := a.runpod().ListGPUTypes(ctx)
			if err != nil {
				return fmt.Errorf("failed to list gpu types: %w", err)
			}
			sort.SliceStable(types, func(i, j int) bool {
				return types[i].DisplayName < types[j].DisplayName
			})
			return a.write(ctx, cmd, newGPUTypeList(types))
		},
	}
}

func findGPUCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "find-gpu",
		Usage:     "Find GPU types matching a query",
		ArgsUsage: "<query>",
		Description: `Matches the query against GPU type IDs and display names, ignoring case,
spaces and punctuation, so "rtx3070", "RTX 3070" and "3070" all match
"NVIDIA GeForce RTX 3070". Exact matches are listed first, then by memory.

When nothing matches, the closest names are suggested and the command fails.

Examples:
  rpctl find-gpu 3070
  rpctl find-gpu --json a100`,
		Flags: outputFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := strings.Join(cmd.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("query is required")
			}

			types, err := a.runpod().ListGPUTypes(ctx)
			if err != nil {
				return fmt.Errorf("failed to list gpu types: %w", err)
			}

			matches := gpu.Find(types, query)
			if len(matches) == 0 {
				msg := fmt.Sprintf("no gpu type matches %q", query)
				if s := gpu.Suggest(types, query, gpu.DefaultSuggestions); len(s) > 0 {
					msg += fmt.Sprintf(", did you mean: %s?", strings.Join(s, ", "))
				}
				return rperrors.NewWithContext(rperrors.ErrCodeNotFound, msg, map[string]any{"query": query})
			}

			return a.write(ctx, cmd, newGPUTypeList(matches))
		},
	}
}
