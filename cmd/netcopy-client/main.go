// netcopy-client: pushes a file or directory tree to a netcopy-server.
//
// Usage: netcopy-client [options] <source> <destination>
// Destination forms: server:port/path, server:/path, server.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kardianos/osext"
	"golang.org/x/term"

	"dev.c0redev.netcopy/internal/client"
	"dev.c0redev.netcopy/internal/config"
	"dev.c0redev.netcopy/internal/crypto"
	"dev.c0redev.netcopy/internal/fileio"
	"dev.c0redev.netcopy/internal/logging"
)

func usage() {
	fmt.Fprintf(os.Stderr, `NetCopy Client - Secure File Transfer
%s

Usage:
  %s [options] <source> <destination>

Options:
  -c, --config FILE     Use specified configuration file
  -p, --port PORT       Specify server port number
  -R, --recursive       Transfer directories recursively
      --resume          Resume interrupted transfer
      --no-empty-dirs   Don't create empty directories
  -s, --security LEVEL  Security level: high (default), fast, aes, or AES-256-GCM
  -v, --verbose         Enable verbose logging
  -h, --help            Show this help message

Destination formats:
  server:port/path      e.g., 127.0.0.1:1245/D:/Work/
  server:/path          e.g., 127.0.0.1:/D:/Work/ (uses default port or -p)
  server                e.g., 127.0.0.1 (uses default port; no destination path)
`, client.Version, os.Args[0])
}

func main() {
	configFlag := flag.String("c", "", "")
	flag.StringVar(configFlag, "config", "", "")
	portFlag := flag.Int("p", 0, "")
	flag.IntVar(portFlag, "port", 0, "")
	recursiveFlag := flag.Bool("R", false, "")
	flag.BoolVar(recursiveFlag, "recursive", false, "")
	resumeFlag := flag.Bool("resume", false, "")
	noEmptyDirsFlag := flag.Bool("no-empty-dirs", false, "")
	securityFlag := flag.String("s", "high", "")
	flag.StringVar(securityFlag, "security", "high", "")
	verboseFlag := flag.Bool("v", false, "")
	flag.BoolVar(verboseFlag, "verbose", false, "")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(1)
	}
	source := flag.Arg(0)
	host, destPort, destPath, err := parseDestination(flag.Arg(1))
	if err != nil {
		fatal(err)
	}

	suite, err := crypto.ParseSuite(*securityFlag)
	if err != nil {
		fatal(err)
	}

	cfg, err := config.LoadClient(configPath(*configFlag, "client.conf"))
	if err != nil {
		fatal(err)
	}
	if *noEmptyDirsFlag {
		cfg.CreateEmptyDirectories = false
	}
	if *verboseFlag {
		cfg.LogLevel = "debug"
	}

	log, closeLog, err := logging.Setup(cfg.LogLevel, cfg.ConsoleOutput, cfg.LogFile)
	if err != nil {
		fatal(err)
	}
	defer closeLog()

	port := 1245
	if destPort != 0 {
		port = destPort
	}
	if *portFlag != 0 {
		port = *portFlag
	}

	c := client.New(cfg, suite, log)
	c.Prompt = promptPassword
	c.Progress = printProgress

	if err := c.Connect(host, port); err != nil {
		fatal(err)
	}
	defer c.Close()

	if fileio.IsDir(source) {
		if !*recursiveFlag {
			fatal(fmt.Errorf("cannot transfer directory without -R/--recursive flag"))
		}
		err = c.TransferDirectory(source, destPath, *resumeFlag)
	} else {
		if destPath == "" {
			fatal(fmt.Errorf("destination path required for file transfer"))
		}
		err = c.TransferFile(source, destPath, *resumeFlag)
	}
	if err != nil {
		fatal(err)
	}
	fmt.Println()
	fmt.Println("Transfer completed successfully")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

// parseDestination splits the server:port/path argument forms. The path
// part stays in wire format (forward slashes), with backslashes
// converted.
func parseDestination(s string) (host string, port int, path string, err error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return s, 0, "", nil
	}
	host = s[:idx]
	rest := s[idx+1:]
	if host == "" {
		return "", 0, "", fmt.Errorf("invalid destination %q: missing server", s)
	}
	// server:port/path
	if slash := strings.IndexByte(rest, '/'); slash > 0 {
		if p, perr := strconv.Atoi(rest[:slash]); perr == nil {
			if p < 1 || p > 65535 {
				return "", 0, "", fmt.Errorf("port number out of range (1-65535): %d", p)
			}
			return host, p, fileio.ToUnix(rest[slash:]), nil
		}
	}
	// server:/path or server:D:\path
	return host, 0, fileio.ToUnix(rest), nil
}

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

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "It seems you didn't configure the secret key in the client. Please enter the master password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func printProgress(sent, total uint64, path string) {
	if total == 0 {
		fmt.Printf("\r%s: empty file", filepath.Base(path))
		return
	}
	fmt.Printf("\r%s: %d/%d bytes (%d%%)", filepath.Base(path), sent, total, sent*100/total)
}
