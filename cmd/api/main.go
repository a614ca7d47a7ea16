// @title Patient Access API
// @version 1.0
// @description Accesos temporales paciente -> doctor, auditoría y gate de mensajería.
// @BasePath /
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env es opcional; las variables del entorno ganan.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "patient-access",
		Short: "Patient-controlled doctor access API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
