package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/netresolved/pkg/log"
	"github.com/cuemby/netresolved/pkg/metrics"
	"github.com/cuemby/netresolved/pkg/procio"
	"github.com/cuemby/netresolved/pkg/supervisor"
)

// Version information, set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "netresolved",
	Short: "Container-aware authoritative DNS resolver",
	Long: `netresolved answers DNS queries for container names and addresses on
behalf of the networks it is told about, forwarding anything it cannot
answer itself to the host's upstream resolvers.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	if env := os.Getenv("NETRESOLVED_LOG_LEVEL"); env != "" {
		level = env
	}
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(level),
		JSONOutput: jsonOutput,
	})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Parse the configuration directory and start serving DNS",
	RunE:  runDaemon,
}

func init() {
	runCmd.Flags().String("config", "", "Configuration directory (one file per network)")
	runCmd.Flags().Uint16("port", 5533, "Listener port")
	runCmd.Flags().String("filter-search-domain", ".dns.podman", "Search domain suffix stripped from queries and used to gate forwarding")
	runCmd.Flags().String("resolv-conf", "/etc/resolv.conf", "Host resolver file to read and watch for upstream resolvers")
	runCmd.Flags().String("metrics-addr", "", "Address to serve Prometheus metrics on (disabled if empty)")
	runCmd.MarkFlagRequired("config")
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	configDir, _ := cmd.Flags().GetString("config")
	port, _ := cmd.Flags().GetUint16("port")
	filterSearchDomain, _ := cmd.Flags().GetString("filter-search-domain")
	resolvConf, _ := cmd.Flags().GetString("resolv-conf")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	noProxy := envBool("NETRESOLVED_NO_PROXY")

	if metricsAddr != "" {
		go serveMetrics(metricsAddr)
	}

	readyFD := -1
	if v := os.Getenv(procio.ReadyPipeFDEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			readyFD = n
		}
	}
	readyPipe := procio.OpenReadyPipe(readyFD)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	sup := supervisor.New(supervisor.Options{
		ConfigDir:          configDir,
		Port:               int(port),
		FilterSearchDomain: filterSearchDomain,
		NoProxy:            noProxy,
		ResolverFile:       resolvConf,
	})

	return sup.Run(stop, readyPipe)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Logger.Error().Err(err).Str("addr", addr).Msg("metrics server exited")
	}
}

func envBool(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Target    string `json:"target"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versionInfo{
			Version:   Version,
			Commit:    Commit,
			BuildTime: BuildTime,
			Target:    runtime.GOOS + "/" + runtime.GOARCH,
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(info)
	},
}
