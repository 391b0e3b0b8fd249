// Command docproofd runs the document certification HTTP service. It fronts
// the registry chaincode through the Fabric gateway, or an in-memory registry
// when started in dev mode.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"docproof/internal/config"
	"docproof/internal/registry"
	"docproof/internal/server"
)

var (
	configPath string
	listenAddr string
	devMode    bool
)

var rootCmd = &cobra.Command{
	Use:   "docproofd",
	Short: "Document certification service backed by a ledger registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "docproof.json", "path to the JSON config file")
	rootCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address override (e.g. :8080)")
	rootCmd.Flags().BoolVar(&devMode, "dev", false, "use the in-memory registry instead of Fabric")
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if devMode {
		cfg.DevMode = true
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reg registry.Registry
	if cfg.DevMode {
		log.Warn("dev mode: registrations are held in memory and lost on restart")
		reg = registry.NewMemory()
	} else {
		gw, err := registry.NewGateway(cfg.Fabric, log)
		if err != nil {
			return fmt.Errorf("failed to connect to fabric gateway: %w", err)
		}
		reg = gw
		go func() {
			if err := gw.ListenEvents(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Warn("chaincode event listener stopped")
			}
		}()
	}
	defer func() {
		if err := reg.Close(); err != nil {
			log.WithError(err).Warn("failed to close registry")
		}
	}()

	srv := server.New(cfg, reg, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("docproofd exited")
	}
}
