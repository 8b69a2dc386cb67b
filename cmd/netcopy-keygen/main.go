// netcopy-keygen: derives the shared secret key from a master password.
// The derivation uses a fixed salt so both peers get the same key from
// the same password.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"dev.c0redev.netcopy/internal/crypto"
)

func main() {
	genkey := flag.Bool("genkey", false, "generate a new encryption key from a master password")
	flag.Parse()

	if !*genkey {
		fmt.Println("NetCopy Key Generator")
		fmt.Printf("Usage: %s -genkey\n", os.Args[0])
		fmt.Println("  -genkey    Generate a new encryption key from master password")
		os.Exit(1)
	}

	fmt.Print("Please enter the master password to generate the secret key: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if len(password) == 0 {
		fmt.Fprintln(os.Stderr, "Error: password cannot be empty")
		os.Exit(1)
	}

	key := crypto.DeriveKey(string(password))
	fmt.Printf("Insert the %q to your client and server configuration.\n", crypto.FormatKey(key))
}
