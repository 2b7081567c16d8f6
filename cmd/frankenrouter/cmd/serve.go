package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/macroflight/frankenrouter/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the router",
}

// confManager mirrors the teacher's package-level viper instance
// (cmd/go-hub/cmd/serve.go), pointed at a TOML file instead of YAML
// since spec.md's config layout is TOML.
var confManager *viper.Viper

func init() {
	confManager = viper.New()
	confManager.SetConfigType("toml")
	confManager.SetConfigName("frankenrouter")
	confManager.AddConfigPath(".")
	confManager.AddConfigPath("/etc/frankenrouter")

	confManager.SetDefault("listen.port", 6809)
	confManager.SetDefault("listen.rest_api_port", 8080)
	confManager.SetDefault("log.traffic_max_size", 10<<20)
	confManager.SetDefault("log.traffic_keep_versions", 5)
	confManager.SetDefault("log.output_max_size", 10<<20)
	confManager.SetDefault("log.output_keep_versions", 5)

	flags := serveCmd.Flags()
	fDebug := flags.Bool("debug", false, "log every inbound/outbound line at debug level")
	fConfig := flags.String("config", "", "path to a specific config file (overrides search path)")

	serveCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if *fConfig != "" {
			confManager.SetConfigFile(*fConfig)
		}
		if err := confManager.ReadInConfig(); err != nil {
			return fmt.Errorf("frankenrouter: reading config: %w", err)
		}
		fmt.Println("loaded config:", confManager.ConfigFileUsed())

		var cfg router.Config
		if err := confManager.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("frankenrouter: parsing config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := logrus.New()
		if *fDebug {
			log.SetLevel(logrus.DebugLevel)
		}

		var cat *router.Catalogue
		if cfg.PSX.Variables != "" {
			loaded, err := router.LoadCatalogue(cfg.PSX.Variables)
			if err != nil {
				return fmt.Errorf("frankenrouter: loading variable catalogue: %w", err)
			}
			cat = loaded
		} else {
			cat = router.NewCatalogue()
		}

		metrics := router.NewMetrics(prometheus.DefaultRegisterer)

		var trafficLog *router.TrafficLog
		if cfg.Log.Traffic {
			tl, err := router.NewTrafficLog(cfg.Log.Directory, cfg.Log.TrafficMaxSize, cfg.Log.TrafficKeepVersions, metrics)
			if err != nil {
				return fmt.Errorf("frankenrouter: opening traffic log: %w", err)
			}
			trafficLog = tl
		}

		r, err := router.New(&cfg, cat, metrics, log, trafficLog)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		go func() {
			<-ch
			log.Info("shutting down")
			cancel()
		}()

		listenAddr := net.JoinHostPort("", strconv.Itoa(cfg.Listen.Port))
		fmt.Println("listening on", listenAddr)
		serveCmd.SilenceUsage = true
		return r.Run(ctx, listenAddr)
	}
}
