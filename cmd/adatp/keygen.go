package main

import (
	"encoding/base64"
	"fmt"

	"github.com/adatp-project/adatp/pkg/keyschedule"
	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ephemeral X25519 key pair",
	Long: `Generate an X25519 key pair of the kind exchanged during the AdaTP
handshake. This is for inspection only — real sessions generate a fresh
ephemeral pair per handshake rather than reusing one from disk.`,
	Example: `  adatp keygen`,
	RunE:    runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	kp, err := keyschedule.GenerateX25519KeyPair()
	if err != nil {
		return fmt.Errorf("generate key pair: %w", err)
	}

	pub := kp.Public()
	fmt.Printf("public:  %s\n", base64.StdEncoding.EncodeToString(pub[:]))
	fmt.Println("(private key is held in memory only and not printed)")
	return nil
}
