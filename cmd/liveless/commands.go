package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/aethiopicuschan/liveless/config"
	"github.com/aethiopicuschan/liveless/gate"
	"github.com/aethiopicuschan/liveless/hooks"
	"github.com/aethiopicuschan/liveless/liveless"
	"github.com/aethiopicuschan/liveless/metrics"
	"github.com/aethiopicuschan/liveless/status"
	"github.com/aethiopicuschan/liveless/stun"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "liveless",
		Short: "Console online-service spoofing layer",
		Long: `liveless makes a console title believe it is signed in to the online
service and redirects its peer traffic to a single public address.

The layer itself is installed by the injection component. This tool runs
its address discovery, a legacy STUN responder, and a dry run of the
activation sequence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "override log_level (error, warn, info, debug, trace)")

	root.AddCommand(
		newDiscoverCmd(f),
		newSTUNServerCmd(f),
		newActivateCmd(f),
	)
	return root
}

// load reads --config, or the defaults when it is not given.
func (f *rootFlags) load() (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
		if _, err := cfg.Level(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newDiscoverCmd(f *rootFlags) *cobra.Command {
	var (
		timeout   time.Duration
		localPort int
		noVerify  bool
	)
	cmd := &cobra.Command{
		Use:   "discover [host[:port]]",
		Short: "Learn the public IPv4 address from a legacy STUN server",
		Long: `discover sends the fixed binding request once and prints the mapped
address. Without an argument the server comes from stun_server and
stun_port in the config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			host, port := cfg.STUNServer, cfg.STUNPort
			if len(args) == 1 {
				if host, port, err = splitHostPort(args[0], config.DefaultSTUNPort); err != nil {
					return err
				}
			}
			if host == "" || port == 0 {
				return errors.New("no STUN server given")
			}

			c := &stun.Client{
				Timeout:           cfg.STUNTimeout,
				LocalPort:         cfg.STUNLocalPort,
				VerifyTransaction: cfg.STUNVerifyTransaction && !noVerify,
				Logger:            cfg.LoggerFactory().NewLogger("stun"),
			}
			if cmd.Flags().Changed("timeout") {
				c.Timeout = timeout
			}
			if cmd.Flags().Changed("local-port") {
				c.LocalPort = localPort
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "STUN server:", net.JoinHostPort(host, strconv.Itoa(int(port))))

			mapped, err := c.Discover(cmd.Context(), host, port)
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}
			fmt.Fprintln(out, "Public mapped address:")
			fmt.Fprintln(out, "  IP  :", mapped.IP)
			fmt.Fprintln(out, "  Port:", mapped.Port)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", stun.DefaultTimeout, "receive timeout")
	cmd.Flags().IntVar(&localPort, "local-port", 0, "local UDP port, 0 for ephemeral")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "accept responses from any source")
	return cmd
}

func newSTUNServerCmd(f *rootFlags) *cobra.Command {
	var (
		listen   string
		software string
	)
	cmd := &cobra.Command{
		Use:   "stun-server",
		Short: "Answer legacy binding requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			srv, err := stun.ListenUDP(listen)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}
			defer srv.Close()
			srv.Software = software
			srv.Logger = cfg.LoggerFactory().NewLogger("stun-server")

			fmt.Fprintln(cmd.OutOrStdout(), "STUN server listening on", srv.Conn.LocalAddr())
			if err := srv.ServeContext(cmd.Context()); err != nil && !errors.Is(err, cmd.Context().Err()) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "0.0.0.0:3478", "UDP listen address")
	cmd.Flags().StringVar(&software, "software", "liveless", "SOFTWARE attribute, empty to omit")
	return cmd
}

func newActivateCmd(f *rootFlags) *cobra.Command {
	var (
		probeHost  string
		statusAddr string
	)
	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Dry-run the activation sequence",
		Long: `activate runs the capability gate, address discovery and table build
against an in-memory installer and prints the result. With a status address
the layer state and metrics stay available over HTTP until interrupted.

--probe-host is a reachability heuristic: if the host resolves, activation
is refused as if a live session existed. It cannot tell a signed-in profile
from plain internet access, so only use it where the online service is
expected to be blocked. Without it, activation is refused unless the
config sets emulator.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("status-addr") {
				cfg.StatusAddr = statusAddr
			}

			reg := prometheus.NewRegistry()
			opts := []liveless.Option{
				liveless.WithMetrics(metrics.New(reg)),
				liveless.WithLoggerFactory(cfg.LoggerFactory()),
			}
			if probeHost != "" {
				opts = append(opts, liveless.WithProber(gate.ResolverProber{Host: probeHost}))
			}

			var rec hooks.Recorder
			layer, actErr := liveless.Activate(cmd.Context(), cfg, &rec, opts...)
			printLayer(cmd, layer, actErr)

			if cfg.StatusAddr == "" {
				return actErr
			}
			return serveStatus(cmd, cfg.StatusAddr, layer, reg)
		},
	}
	cmd.Flags().StringVar(&probeHost, "probe-host", "", "online service host whose resolution is treated as a live session (reachability heuristic)")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "override status_addr")
	return cmd
}

func printLayer(cmd *cobra.Command, l *liveless.Layer, err error) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Activated:", l.Activated())
	if err != nil {
		fmt.Fprintln(out, "Reason   :", err)
	}
	if ext := l.External(); ext.IsValid() {
		fmt.Fprintln(out, "External :", ext)
	}
	if r := l.Redirect(); !r.IsZero() {
		fmt.Fprintln(out, "Redirect :", r)
	}
	for _, name := range l.Hooks() {
		fmt.Fprintln(out, "  hook   :", name)
	}
}

func serveStatus(cmd *cobra.Command, addr string, l *liveless.Layer, reg *prometheus.Registry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	srv := status.NewServer(l, reg, nil)
	fmt.Fprintln(cmd.OutOrStdout(), "Status server:", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// splitHostPort accepts "host" or "host:port".
func splitHostPort(s string, defPort uint16) (string, uint16, error) {
	if ip, err := netip.ParseAddr(s); err == nil {
		return ip.String(), defPort, nil
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return s, defPort, nil
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, uint16(port), nil
}
