// Command dhcp6d runs the DHCPv6 server described by a YAML configuration
// file: it opens the configured listeners, builds the filter/handler
// pipeline, and serves until asked to shut down over its control socket
// or by signal.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mdlayher-dhcp6/dhcp6d/config"
	"github.com/mdlayher-dhcp6/dhcp6d/internal/server"
	"github.com/mdlayher-dhcp6/dhcp6d/stats"
)

// Exit codes per the server's external-interface contract.
const (
	exitOK            = 0
	exitConfigError   = 2
	exitBindFailure   = 3
	exitControlError  = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		configPath string
		checkOnly  bool
		foreground bool
	)

	cmd := &cobra.Command{
		Use:           "dhcp6d",
		Short:         "DHCPv6 server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML configuration file")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "validate configuration and exit")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "keep the log prefix at the start of each line (logs go to stderr either way)")
	cmd.MarkFlagRequired("config")
	cmd.SetArgs(args)

	code := exitOK
	cmd.RunE = func(*cobra.Command, []string) error {
		code = serve(configPath, checkOnly, foreground)
		return nil
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}
	return code
}

func serve(configPath string, checkOnly, foreground bool) int {
	logger := log.New(os.Stderr, "dhcp6d: ", log.LstdFlags)
	if !foreground {
		logger.SetFlags(log.LstdFlags | log.Lmsgprefix)
	}

	tree, err := config.Load(configPath)
	if err != nil {
		logger.Printf("configuration error: %v", err)
		return exitConfigError
	}

	rt, err := config.Build(tree)
	if err != nil {
		logger.Printf("configuration error: %v", err)
		return exitConfigError
	}
	if checkOnly {
		rt.Store.Close()
		logger.Printf("configuration OK")
		return exitOK
	}
	defer rt.Store.Close()

	rt.ServerConfig.Logger = logger
	srv, err := server.New(rt.ServerConfig)
	if err != nil {
		logger.Printf("startup error: %v", err)
		return exitBindFailure
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controlErr := make(chan error, 1)
	ctl := &stats.ControlServer{
		Counters: rt.Stats,
		Reload: func() string {
			newTree, err := config.Load(configPath)
			if err != nil {
				return err.Error()
			}
			newRT, err := config.Build(newTree)
			if err != nil {
				return err.Error()
			}
			defer newRT.Store.Close()
			return ""
		},
		Shutdown: func() {
			cancel()
		},
	}
	if rt.ControlSocketPath != "" {
		if err := ctl.Listen(rt.ControlSocketPath); err != nil {
			logger.Printf("control socket error: %v", err)
			return exitBindFailure
		}
		if rt.ControlSocketMode != 0 {
			os.Chmod(rt.ControlSocketPath, os.FileMode(rt.ControlSocketMode))
		}
		go func() {
			if err := ctl.Serve(); err != nil {
				controlErr <- err
			}
		}()
		defer ctl.Close()
	}

	if rt.StatisticsListen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(rt.Stats)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		httpSrv := &http.Server{Addr: rt.StatisticsListen, Handler: mux}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("statistics listener error: %v", err)
			}
		}()
		defer httpSrv.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Printf("listening on %d interface(s)", len(rt.ServerConfig.Interfaces))
	runErr := srv.Run(ctx)

	select {
	case err := <-controlErr:
		logger.Printf("control socket error: %v", err)
		return exitControlError
	default:
	}

	if runErr != nil && runErr != context.Canceled {
		logger.Printf("server error: %v", runErr)
		return exitBindFailure
	}
	return exitOK
}
