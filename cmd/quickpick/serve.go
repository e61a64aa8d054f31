// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/ommathur/quickpick/internal/identity"
	"github.com/ommathur/quickpick/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lookups and the directory over HTTP",
	Long: `Serve exposes GET /api/lookup, /api/categories and /api/products.
Lookups need a bearer token signed with identity.jwt_secret. Without a
secret, identity.user_id is trusted for every request (development only).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	store, err := openDirectory()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := server.Options{
		Pipeline:  newPipeline(store, nil),
		Directory: store,
		DevUser:   cfg.Identity.UserID,
		Logger:    logger,
	}
	if cfg.Identity.JWTSecret != "" {
		opts.Verifier = identity.NewVerifier(cfg.Identity.JWTSecret)
	}
	return server.New(opts).ListenAndServe(cmd.Context(), cfg.Server)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")

	rootCmd.AddCommand(serveCmd)
}
