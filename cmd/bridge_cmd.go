// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/FrankHJCuypers/gaai-sub000/internal/transport/wsbridge"
)

var (
	bridgeListen   string
	bridgeAuthUser string
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Serve the charger link to remote gaai clients over WebSocket",
	Long: `Connect to the charger over BLE (or --simulate) and expose its
characteristics as a WebSocket bridge, so that a gaai client on another host
can reach it with --url ws://this-host:8080/.

With --auth-user, clients must present HTTP Basic credentials; the password
is read from GAAI_PASSWORD or prompted interactively.`,
	RunE: runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.Flags().StringVarP(&bridgeListen, "listen", "l", "", "Listen address (default from config, :8080)")
	bridgeCmd.Flags().StringVar(&bridgeAuthUser, "auth-user", "", "Require HTTP Basic auth with this username")
}

func runBridge(cmd *cobra.Command, args []string) error {
	if settings.Bridge.URL != "" {
		return fmt.Errorf("bridge cannot serve a link that is itself a bridge (drop --url)")
	}

	listen := bridgeListen
	if listen == "" {
		listen = settings.Bridge.Listen
	}
	if listen == "" {
		listen = ":8080"
	}

	password := ""
	if bridgeAuthUser != "" {
		var err error
		password, err = GetPassword()
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	link, info, err := OpenLink(ctx)
	if err != nil {
		return err
	}
	defer link.Close()

	logger := log.New(os.Stderr, "bridge: ", log.Ltime)
	srv := &http.Server{
		Addr:    listen,
		Handler: wsbridge.NewServer(link, bridgeAuthUser, password, logger),
	}

	printHeader("GAAI - BRIDGE", info)
	fmt.Printf("%s %s\n", labelStyle.Render("Listening:"), valueStyle.Render(listen))
	fmt.Println(headerStyle.Render("Press Ctrl+C to exit"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("bridge server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
