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

	"github.com/gorilla/mux"
	"github.com/jessevdk/go-flags"
	"github.com/sturdilythatch87/tari/basenode"
	"github.com/sturdilythatch87/tari/monero"
	"github.com/sturdilythatch87/tari/monero/client/rpc"
	"github.com/sturdilythatch87/tari/proxy"
	"github.com/sturdilythatch87/tari/utils"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logCloser, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	if err = run(cfg); err != nil {
		utils.Errorf("", "%s", err)
		if logCloser != nil {
			_ = logCloser.Close()
		}
		os.Exit(1)
	}
}

func newMonerodClient(cfg *config) (*rpc.Client, error) {
	httpClient := rpc.NewHTTPClient(cfg.MonerodTimeout)
	if cfg.SocksProxy != "" {
		var err error
		if httpClient, err = rpc.NewSOCKS5HTTPClient(cfg.SocksProxy, cfg.MonerodTimeout); err != nil {
			return nil, err
		}
	}

	opts := []rpc.ClientOption{rpc.WithHTTPClient(httpClient)}
	switch {
	case cfg.MonerodUseAuth:
		opts = append(opts, rpc.WithBasicAuth(cfg.MonerodUsername, cfg.MonerodPassword))
	case cfg.MonerodDigestAuth:
		opts = append(opts, rpc.WithDigestAuth(cfg.MonerodUsername, cfg.MonerodPassword))
	}

	return rpc.NewClient(cfg.MonerodURL, opts...)
}

// checkMonerodVersion only warns, monerod may come up after the proxy
func checkMonerodVersion(ctx context.Context, client *rpc.Client) {
	version, err := client.GetVersion(ctx)
	if err != nil {
		utils.Errorf("Monerod", "could not query version of %s: %s", client.Address(), err)
		return
	}
	if version.Version < monero.RequiredMoneroVersion {
		utils.Noticef("Monerod", "RPC version %s is older than required %d.%d, upgrade to %s or newer", version, monero.RequiredMajor, monero.RequiredMinor, monero.RequiredMoneroString)
		return
	}
	utils.Logf("Monerod", "connected to %s, RPC version %s", client.Address(), version)
}

func run(cfg *config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rules, err := basenode.NewConsensusRules(cfg.network)
	if err != nil {
		return err
	}

	monerod, err := newMonerodClient(cfg)
	if err != nil {
		return err
	}
	checkMonerodVersion(ctx, monerod)

	node, err := basenode.Connect(ctx, cfg.GrpcAddress, cfg.BaseNodeTimeout)
	if err != nil {
		return err
	}
	defer node.Close()
	utils.Logf("BaseNode", "using %s base node at %s", cfg.network, cfg.GrpcAddress)

	metrics := proxy.NewMetrics("mmproxy", nil)
	server := proxy.NewServer(proxy.Config{
		Listen: cfg.Listen,
		Rules:  rules,
	}, monerod, node, proxy.NewState(), metrics)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.ListenAndServe)

	var metricsServer *http.Server
	if cfg.MetricsListen != "" {
		router := mux.NewRouter()
		router.Handle("/metrics", proxy.MetricsHandler(nil)).Methods(http.MethodGet)
		metricsServer = &http.Server{
			Addr:              cfg.MetricsListen,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			utils.Logf("Proxy", "serving metrics on %s", cfg.MetricsListen)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		utils.Logf("Proxy", "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if metricsServer != nil {
			_ = metricsServer.Shutdown(shutdownCtx)
		}
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
