package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dsp"
	"github.com/daanv2/go-webp-alpha/pkg/logging"
	"github.com/spf13/cobra"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	var logFile io.Closer

	cmd := &cobra.Command{
		Use:           "webpalpha",
		Short:         "decode and check the alpha plane of lossy WebP files",
		Long:          "webpalpha decodes the ALPH chunk of still lossy WebP files row by row",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logPath, _ := cmd.Flags().GetString("log-file")
			logJSON, _ := cmd.Flags().GetBool("log-json")

			// Parse log level
			var level slog.Level
			levelErr := level.UnmarshalText([]byte(strings.ToUpper(logLevel)))
			if levelErr != nil {
				level = slog.LevelInfo
			}

			var w io.Writer = os.Stderr
			if logPath != "" {
				fw := logging.FileWriter(logPath, 10, 3)
				logFile = fw
				w = fw
			}
			slog.SetDefault(logging.Logger(w, logJSON, level))

			if levelErr != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", levelErr)
			}

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logFile != nil {
				return logFile.Close()
			}

			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd.OutOrStdout(), cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewDecodeCmd(ctx),
		NewVerifyCmd(ctx),
		NewAnalyzeCmd(ctx),
		NewCPUInfoCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "write logs to this rotated file instead of stderr")
	pf.Bool("log-json", false, "log as JSON")

	return cmd
}

func printCommandTree(w io.Writer, cmd *cobra.Command, indent int) {
	fmt.Fprintln(w, strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(w, subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}

	return cmd
}

// NewCPUInfoCmd prints the CPU features that drive the filter dispatch.
func NewCPUInfoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cpuinfo",
		Short: "print the unfilter dispatch decision",
		Run: func(cmd *cobra.Command, args []string) {
			info := dsp.CPUInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "GOOS: %s\n", runtime.GOOS)
			fmt.Fprintf(out, "GOARCH: %s\n", info.GOARCH)
			fmt.Fprintf(out, "NumCPU: %d\n", runtime.NumCPU())
			fmt.Fprintf(out, "Unfilter dispatch: %s\n", info.Dispatch)
			fmt.Fprintf(out, "  SSE2:  %v\n", info.SSE2)
			fmt.Fprintf(out, "  ASIMD: %v\n", info.ASIMD)
			fmt.Fprintf(out, "  %s set: %v\n", dsp.NoSimdEnv, info.NoSimd)
		},
	}

	return cmd
}
