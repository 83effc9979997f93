// Command adatp is a reference client/server pair exercising the full
// handshake, session, and framing stack over a plain TCP connection.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "adatp",
	Short: "AdaTP reference client and server",
	Long: `adatp drives the AdaTP secure transport protocol end to end: an
X25519 handshake, HKDF-derived session keys, and AES-256-GCM framed
messaging, over a raw TCP connection.

This tool supports:
- Generating X25519 key pairs for inspection
- Running a chat relay demo server with room broadcast
- Running an interactive chat client against that server`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (optional)")
}
