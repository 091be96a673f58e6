package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rustyeddy/drinkx/app"
	"github.com/rustyeddy/drinkx/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the price exchange",
	Long: `Load the drink list and serve the exchange until interrupted.

Settings come from the config file when one is given, otherwise from the
defaults. DRINKX_* environment variables override both, and flags override
everything.

Example:
  drinkx serve --drinks drinks.json
  drinkx serve -f drinkx.yaml --addr :8080`,
	RunE: runServe,
}

var (
	serveConfigPath string
	serveDrinks     string
	serveAddr       string
	serveWSAddr     string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	serveCmd.Flags().StringVar(&serveDrinks, "drinks", "", "path to the drinks JSON file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP API listen address")
	serveCmd.Flags().StringVar(&serveWSAddr, "ws-addr", "", "websocket listen address")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv()
	}
	return config.LoadFromFile(path)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serveDrinks != "" {
		cfg.Drinks = config.DrinksConfig{File: serveDrinks}
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveWSAddr != "" {
		cfg.Server.WSAddr = serveWSAddr
	}

	svc, err := app.Build(cfg, time.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		select {
		case <-svc.Ready():
			fmt.Printf("🍻 drinkx is serving on http://%s (websocket %s)\n", svc.Addr(), svc.WSAddr())
		case <-ctx.Done():
		}
	}()

	return svc.Run(ctx)
}
