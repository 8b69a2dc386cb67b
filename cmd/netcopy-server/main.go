// netcopy-server: accepts encrypted NetCopy connections and writes the
// pushed files under the configured allowed paths.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/kardianos/osext"

	"dev.c0redev.netcopy/internal/config"
	"dev.c0redev.netcopy/internal/daemon"
	"dev.c0redev.netcopy/internal/logging"
	"dev.c0redev.netcopy/internal/server"
)

func main() {
	listenFlag := flag.String("l", "", "listen address as host:port (overrides config)")
	flag.StringVar(listenFlag, "listen", "", "listen address as host:port (overrides config)")
	accessFlag := flag.String("a", "", "comma-separated allowed destination paths (overrides config)")
	flag.StringVar(accessFlag, "access", "", "comma-separated allowed destination paths (overrides config)")
	configFlag := flag.String("c", "", "configuration file")
	flag.StringVar(configFlag, "config", "", "configuration file")
	daemonFlag := flag.Bool("d", false, "daemon mode: write the PID file (the process stays in the foreground)")
	flag.BoolVar(daemonFlag, "daemon", false, "daemon mode: write the PID file (the process stays in the foreground)")
	verboseFlag := flag.Bool("v", false, "verbose logging")
	flag.BoolVar(verboseFlag, "verbose", false, "verbose logging")

	serviceFlag := flag.Bool("service", false, "run under the service manager")
	installFlag := flag.Bool("install", false, "install as a system service")
	uninstallFlag := flag.Bool("uninstall", false, "uninstall the system service")
	startFlag := flag.Bool("start", false, "start the installed service")
	stopFlag := flag.Bool("stop", false, "stop the installed service")
	flag.Parse()

	cfg, err := config.LoadServer(configPath(*configFlag, "server.conf"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if *listenFlag != "" {
		host, port, err := splitListen(*listenFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		cfg.ListenAddress = host
		cfg.ListenPort = port
	}
	if *accessFlag != "" {
		cfg.AllowedPaths = splitList(*accessFlag)
	}
	if *verboseFlag {
		cfg.LogLevel = "debug"
	}

	if handled, err := runServiceVerb(cfg, *serviceFlag, *installFlag, *uninstallFlag, *startFlag, *stopFlag); handled {
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, *daemonFlag || cfg.RunAsDaemon); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cfg config.ServerConfig, background bool) error {
	log, closeLog, err := logging.Setup(cfg.LogLevel, cfg.ConsoleOutput, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	if background && cfg.PIDFile != "" {
		if err := daemon.WritePIDFile(cfg.PIDFile); err != nil {
			return err
		}
		defer daemon.RemovePIDFile(cfg.PIDFile)
	}

	srv, err := server.New(cfg, log)
	if err != nil {
		return err
	}
	if err := srv.Listen(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		srv.Stop()
	}()

	return srv.Serve()
}

// configPath resolves an explicit -c flag, otherwise a file next to the
// executable.
func configPath(flagValue, name string) string {
	if flagValue != "" {
		return flagValue
	}
	dir, err := osext.ExecutableFolder()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

func splitListen(s string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen address %q: %v", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in %q", s)
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return host, port, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
