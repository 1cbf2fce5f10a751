package main

import (
	"net/http"
	"os"
	"time"

	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thomas11/attila"
)

var (
	settingsPath string
	drafts       bool
	verbose      bool
	port         string
	watch        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "attila",
		Short:        "Static blog generator",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "attila.yaml", "Path to the settings file (yaml, toml or json)")
	rootCmd.PersistentFlags().BoolVar(&drafts, "drafts", false, "Include articles and pages with the draft status.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Render the site to OUTPUT_PATH",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			conf, err := attila.LoadSettings(settingsPath)
			if err != nil {
				return err
			}
			return renderSite(conf, logger)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Render the site and serve OUTPUT_PATH on localhost",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			conf, err := attila.LoadSettings(settingsPath)
			if err != nil {
				return err
			}
			if err := renderSite(conf, logger); err != nil {
				return err
			}
			if watch {
				go rerenderOnChange(conf, logger)
			}
			return serveSite(conf.OutputPath, logger)
		},
	}
	serveCmd.Flags().StringVar(&port, "port", ":9999", "Address to serve on")
	serveCmd.Flags().BoolVar(&watch, "watch", false, "Re-render the site on changes to the content directory.")

	rootCmd.AddCommand(buildCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func renderSite(conf *attila.Settings, logger *zap.Logger) error {
	_, err := attila.NewSite(conf, logger, drafts).Build()
	return err
}

func serveSite(dir string, logger *zap.Logger) error {
	http.Handle("/", http.FileServer(http.Dir(dir)))
	logger.Info("Serving site", zap.String("dir", dir), zap.String("addr", port))
	return http.ListenAndServe(port, nil)
}

func rerenderOnChange(conf *attila.Settings, logger *zap.Logger) {
	logger.Info("Watching for changes", zap.String("dir", conf.Path))

	w := watcher.New()
	w.SetMaxEvents(1)

	go func() {
		for {
			select {
			case <-w.Event:
				if err := renderSite(conf, logger); err != nil {
					logger.Error("Re-render failed", zap.Error(err))
				}
			case err := <-w.Error:
				logger.Error("Watcher error", zap.Error(err))
			case <-w.Closed:
				return
			}
		}
	}()

	if err := w.AddRecursive(conf.Path); err != nil {
		logger.Fatal("Cannot watch content", zap.Error(err))
	}
	if err := w.Start(time.Millisecond * 200); err != nil {
		logger.Fatal("Cannot start watcher", zap.Error(err))
	}
}
