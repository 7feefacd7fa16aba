package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/arena/go/clients/arena_client"
	"github.com/mcdev12/arena/go/internal/arena/console"
	"github.com/mcdev12/arena/go/internal/arena/gateway"
	"github.com/mcdev12/arena/go/internal/arena/orchestrator"
	"github.com/mcdev12/arena/go/internal/arena/publisher"
	"github.com/mcdev12/arena/go/internal/config"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "arena",
		Short:        "Run and watch automated tic-tac-toe matches between two agents",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCommand())
	return root
}

func newRunCommand() *cobra.Command {
	var (
		configPath  string
		games       int
		apiURL      string
		gatewayAddr string
		natsURL     string
		noConsole   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a new series and drive it to completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("games") {
				cfg.Games = games
			}
			if cmd.Flags().Changed("api-url") {
				cfg.API.URL = apiURL
			}
			if cmd.Flags().Changed("gateway-addr") {
				cfg.Gateway.Addr = gatewayAddr
			}
			if cmd.Flags().Changed("nats-url") {
				cfg.NATS.URL = natsURL
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			level, _ := cfg.LogLevel()
			zerolog.SetGlobalLevel(level)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, noConsole)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().IntVarP(&games, "games", "n", 1, fmt.Sprintf("number of games in the series (1-%d)", config.MaxGames))
	cmd.Flags().StringVar(&apiURL, "api-url", config.DefaultAPIURL, "base URL of the match server")
	cmd.Flags().StringVar(&gatewayAddr, "gateway-addr", "", "serve the live view on this address (e.g. :8090)")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "publish snapshots to this NATS server")
	cmd.Flags().BoolVar(&noConsole, "no-console", false, "print one line per snapshot instead of redrawing the terminal")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, plain bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	renderers := orchestrator.MultiRenderer{console.New(os.Stdout, plain)}

	if cfg.Gateway.Addr != "" {
		svc := gateway.NewService(gateway.DefaultConnectionConfig())
		server := gateway.NewServer(cfg.Gateway.Addr, svc)
		renderers = append(renderers, svc)

		g.Go(func() error { return svc.Start(gctx) })
		g.Go(func() error {
			log.Info().Str("addr", server.Addr).Msg("gateway listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("gateway server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if cfg.NATS.URL != "" {
		pcfg := publisher.DefaultJetStreamConfig()
		pcfg.URL = cfg.NATS.URL
		pub, err := publisher.NewJetStreamPublisher(gctx, pcfg)
		if err != nil {
			cancel()
			_ = g.Wait()
			return fmt.Errorf("failed to setup publisher: %w", err)
		}
		defer pub.Close()
		renderers = append(renderers, pub)

		g.Go(func() error { return pub.Run(gctx) })
	}

	client := arena_client.NewClient(cfg.API.URL, cfg.API.Timeout)
	orch := orchestrator.New(client, renderers,
		orchestrator.WithAgentNames(cfg.Agents.A, cfg.Agents.B),
	)

	log.Info().
		Str("api_url", cfg.API.URL).
		Int("games", cfg.Games).
		Str("gateway_addr", cfg.Gateway.Addr).
		Bool("publishing", cfg.NATS.URL != "").
		Msg("starting arena")

	if err := orch.Start(gctx, cfg.Games); err != nil {
		cancel()
		_ = g.Wait()
		return err
	}

	g.Go(func() error {
		<-orch.Done()
		view := orch.View()

		switch {
		case view.Complete:
			log.Info().Str("status", view.Status).Msg("series finished")
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("match halted: %s", view.Status)
		}

		// keep serving the final board to viewers until interrupted
		if cfg.Gateway.Addr == "" {
			cancel()
		}
		return nil
	})

	return g.Wait()
}
