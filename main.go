package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"brandkit/api"
	"brandkit/brand"
	"brandkit/config"
	"brandkit/counter"
	"brandkit/storage"
	"brandkit/theme"
)

//go:embed web/index.html
var indexHTML string

var (
	dataDir     string
	listen      string
	listenPort  int
	storageFlag string
	appVersion  = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:           "brandkit",
	Short:         "brandkit - brand palette and theme service",
	Long:          "brandkit serves a brand's light/dark palettes and keeps the active theme mode persisted and mirrored to connected browsers.",
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a default configuration file",
	Long:  "Generate a default brandkit.yaml in the data directory (or current directory if not specified).",
	RunE:  runConfigGenerate,
}

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Inspect or change the persisted theme mode",
}

var themeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current theme mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, func(ctrl *theme.Controller) error {
			fmt.Fprintln(cmd.OutOrStdout(), ctrl.Mode())
			return nil
		})
	},
}

var themeSetCmd = &cobra.Command{
	Use:       "set <light|dark>",
	Short:     "Set the theme mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(theme.Light), string(theme.Dark)},
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := theme.ParseMode(args[0])
		if err != nil {
			return err
		}
		return withController(cmd, func(ctrl *theme.Controller) error {
			if err := ctrl.SetMode(m); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ctrl.Mode())
			return nil
		})
	},
}

var themeToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Flip between light and dark",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, func(ctrl *theme.Controller) error {
			fmt.Fprintln(cmd.OutOrStdout(), ctrl.Toggle())
			return nil
		})
	},
}

var brandCmd = &cobra.Command{
	Use:   "brand",
	Short: "Inspect the brand configuration",
}

var brandShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print palettes and typography",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		b, err := loadBrand(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), brand.Render(b))
		return nil
	},
}

var brandAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check palette contrast and light/dark inversion",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		b, err := loadBrand(cfg)
		if err != nil {
			return err
		}
		findings := brand.Audit(b)
		fmt.Fprint(cmd.OutOrStdout(), brand.RenderFindings(findings))
		if !brand.Passed(findings) {
			return errors.New("brand audit failed")
		}
		return nil
	},
}

func init() {
	wd, _ := os.Getwd()
	rootCmd.Version = appVersion
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", wd, "Data directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "Storage driver: none, memory, file or sqlite")
	rootCmd.Flags().StringVar(&listen, "listen", "all", "IP address to listen on (default: all)")
	rootCmd.Flags().IntVar(&listenPort, "listen-port", 8080, "Port to listen on (default: 8080)")

	configCmd.AddCommand(configGenerateCmd)
	themeCmd.AddCommand(themeGetCmd, themeSetCmd, themeToggleCmd)
	brandCmd.AddCommand(brandShowCmd, brandAuditCmd)
	rootCmd.AddCommand(configCmd, themeCmd, brandCmd)
}

func setupLogger(cfg config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// loadConfig reads the config from --data-dir and applies explicitly set
// flags on top of it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	if cmd.Flags().Changed("storage") {
		cfg.Storage.Driver = storageFlag
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	if cmd.Flags().Changed("listen") || cmd.Flags().Changed("listen-port") {
		if listen != "" && listen != "all" {
			cfg.ListenAddr = net.JoinHostPort(listen, fmt.Sprint(listenPort))
		} else {
			cfg.ListenAddr = fmt.Sprintf(":%d", listenPort)
		}
	}

	dataDirAbs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDirAbs

	setupLogger(cfg)
	return cfg, nil
}

// openStore opens the configured store. A store that cannot be opened is
// replaced by storage.Noop so the process keeps running in memory.
func openStore(cfg config.Config) (storage.KV, func() error) {
	kv, closeFn, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path, cfg.DataDir)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Storage.Driver).Msg("storage unavailable, running in memory only")
		return storage.Noop{}, func() error { return nil }
	}
	return kv, closeFn
}

func loadBrand(cfg config.Config) (brand.Config, error) {
	path := cfg.BrandFile
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(cfg.DataDir, path)
	}
	b, err := brand.Load(path)
	if err != nil {
		return brand.Config{}, fmt.Errorf("load brand: %w", err)
	}
	return b, nil
}

// withController runs fn against the persisted theme. With no browser
// attached, the presentation flag is only logged.
func withController(cmd *cobra.Command, fn func(*theme.Controller) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	kv, closeStore := openStore(cfg)
	defer closeStore()

	surface := theme.SurfaceFunc(func(name string, on bool) {
		log.Debug().Str("class", name).Bool("on", on).Msg("presentation flag")
	})
	return fn(theme.NewProvider(kv, surface).Controller())
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	brandCfg, err := loadBrand(cfg)
	if err != nil {
		return err
	}
	if findings := brand.Audit(brandCfg); !brand.Passed(findings) {
		log.Warn().Msg("brand audit reported problems; run `brandkit brand audit` for details")
	}

	kv, closeStore := openStore(cfg)
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("close storage")
		}
	}()

	ws := api.NewWSConnectionManager()
	classes := theme.NewClassList()
	ctrl := theme.NewProvider(kv, theme.Surfaces{classes, ws}).Controller()
	log.Info().Str("mode", ctrl.Mode().String()).Str("storage", cfg.Storage.Driver).Msg("theme restored")

	indexTemplate := template.Must(template.New("index").Parse(indexHTML))

	mux := http.NewServeMux()
	api.NewServer(ctrl, counter.New(), ws).Register(mux)
	theme.NewHandler(ctrl, brandCfg).Register(mux)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = indexTemplate.Execute(w, map[string]any{
			"Name":      brandCfg.Name,
			"Tagline":   brandCfg.Tagline,
			"Mode":      ctrl.Mode().String(),
			"RootClass": strings.Join(classes.Names(), " "),
		})
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		printListeningAddresses(cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runConfigGenerate(cmd *cobra.Command, args []string) error {
	dataDirAbs, err := filepath.Abs(dataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := config.Default()
	cfg.DataDir = dataDirAbs
	if cmd.Flags().Changed("storage") {
		cfg.Storage.Driver = storageFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Path()); err == nil {
		return fmt.Errorf("config file already exists: %s", cfg.Path())
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated default config file: %s\n", cfg.Path())
	return nil
}

func printListeningAddresses(addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		log.Info().Str("addr", addr).Msg("listening")
		return
	}

	if host != "" && host != "0.0.0.0" && host != "::" {
		log.Info().Str("url", "http://"+net.JoinHostPort(host, port)).Msg("listening")
		return
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.Info().Str("url", "http://0.0.0.0:"+port).Msg("listening")
		return
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			log.Info().Str("url", "http://"+net.JoinHostPort(ipnet.IP.String(), port)).Msg("listening")
		}
	}
	log.Info().Str("url", "http://localhost:"+port).Msg("listening")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
