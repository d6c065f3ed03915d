package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	envPrefix      = "SEQRAND_"
	defaultEnvFile = ".env"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "seqrand",
		Short: "Randomize the order of sequencing reads with bounded memory",
		Long: `seqrand shuffles single-end or paired-end FASTQ files in chunks.

Every flag can also be set through an environment variable named
SEQRAND_<FLAG>, e.g. SEQRAND_TMP_DIR or SEQRAND_CHUNK. Variables are
read from --env-file (default .env, if present) before flags are applied.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			return applyEnv(cmd.Flags())
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "Environment file with SEQRAND_* defaults")

	root.AddCommand(
		newRandomizeCmd(),
		newVersionCmd(),
	)
	return root
}

// loadEnvFile loads path into the environment. A missing default file is not
// an error. Variables already set take precedence.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// envName maps a flag name to its environment variable.
func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnv sets every flag not given on the command line from its environment
// variable.
func applyEnv(fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "help" || f.Name == "env-file" {
			return
		}
		v, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}
		if err := fs.Set(f.Name, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", envName(f.Name), err))
		}
	})
	return errors.Join(errs...)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "seqrand %s\n", version)
		},
	}
}
