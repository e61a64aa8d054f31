// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ommathur/quickpick/internal/aggregate"
	"github.com/ommathur/quickpick/internal/identity"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <product name>",
	Short: "Show prices and availability of a product on every storefront",
	Long: `Lookup resolves the product in the directory (case-insensitive, SQL LIKE
wildcards allowed) and queries each storefront that lists it in parallel.
Results are grouped by storefront in the order Blinkit, BigBasket, Zepto.

Signing in: put an access token in .secrets/access-token (verified with
identity.jwt_secret), or set identity.user_id for local development.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	store, err := openDirectory()
	if err != nil {
		return err
	}
	defer store.Close()

	p := newPipeline(store, identity.New(cfg.Identity))
	res, err := p.Run(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return lookupFailure(os.Stderr, err)
	}
	return writeResult(os.Stdout, res, format)
}

// lookupFailure writes the single user-facing message for err and returns an
// error that main does not print again.
func lookupFailure(w io.Writer, err error) error {
	fmt.Fprintln(w, aggregate.UserMessage(err))
	return fmt.Errorf("%w: %w", errReported, err)
}

func checkFormat(format string) error {
	switch format {
	case "table", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use table, json or yaml", format)
	}
}

func writeResult(w io.Writer, res *aggregate.Result, format string) error {
	switch format {
	case "json":
		return aggregate.FormatJSON(res, w)
	case "yaml":
		return aggregate.FormatYAML(res, w)
	default:
		aggregate.FormatTable(res, w)
		return nil
	}
}

func init() {
	lookupCmd.Flags().String("format", "table", "output format: table, json, yaml")

	rootCmd.AddCommand(lookupCmd)
}
