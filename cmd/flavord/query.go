package main

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/IronManRust/culvers-ice-cream-ical/apperr"
	"github.com/IronManRust/culvers-ice-cream-ical/cache"
	"github.com/IronManRust/culvers-ice-cream-ical/service"
	"github.com/spf13/cobra"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type cachedOutput[T any] struct {
	Data    T         `json:"data"`
	Expires time.Time `json:"expires"`
}

func cached[T any](asset cache.CachedAsset[T]) cachedOutput[T] {
	return cachedOutput[T]{Data: asset.Data, Expires: asset.Expires}
}

func newCalendarCommand() *cobra.Command {
	var (
		locations []int
		flavors   []string
	)
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print the flavor calendar for one or more locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := service.NormalizeCalendarQuery(service.RawCalendarQuery{LocationID: locations, FlavorKey: flavors})
			if err := service.ValidateCalendarQuery(q); err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				return writeJSON(cmd.OutOrStdout(), cached(a.svc.Calendar(ctx, q)))
			})
		},
	}
	cmd.Flags().IntSliceVarP(&locations, "location", "l", nil, "location id (repeatable)")
	cmd.Flags().StringSliceVarP(&flavors, "flavor", "f", nil, "only include these flavor keys (repeatable)")
	return cmd
}

func newFlavorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flavors",
		Short: "Print the flavor catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				asset, err := a.svc.FlavorCatalog(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), cached(asset))
			})
		},
	}
}

func newFlavorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flavor <key>",
		Short: "Print one flavor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				asset, err := a.svc.Flavor(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), cached(asset))
			})
		},
	}
}

func newLocationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "location <id>",
		Short: "Print one store location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return apperr.Validation("location id %q is not a number", args[0])
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				asset, err := a.svc.Location(ctx, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), cached(asset))
			})
		},
	}
}

func newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <postal>",
		Short: "Find store locations near a US postal code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				items, err := a.svc.SearchLocations(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), items)
			})
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print service health and cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				return writeJSON(cmd.OutOrStdout(), a.svc.Status(ctx))
			})
		},
	}
}
