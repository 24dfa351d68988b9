package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a simulation and serve the outcome over HTTP.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := builderFromFlags(cmd)
		if err != nil {
			return err
		}

		b = b.WithMonitoring()
		if port := servePort(cmd); port > 0 {
			b = b.WithMonitorPort(port)
		}

		sim := b.Build()
		defer sim.Terminate()

		res, err := sim.Run()
		if err != nil {
			return err
		}

		printSummary(res)
		fmt.Printf("Serving outcome at %s\n", sim.MonitorURL())

		if open, _ := cmd.Flags().GetBool("open"); open {
			if err := browser.OpenURL(sim.MonitorURL()); err != nil {
				fmt.Fprintf(os.Stderr, "cannot open browser: %s\n", err)
			}
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addSimulationFlags(serveCmd)
	serveCmd.Flags().Int("port", 0,
		"port to serve on; 0 picks a random port, MATCHSIM_PORT overrides")
	serveCmd.Flags().Bool("open", false,
		"open the outcome API in a browser")
}

// servePort resolves the port flag, letting the MATCHSIM_PORT environment
// variable stand in when the flag is left at its default.
func servePort(cmd *cobra.Command) int {
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		return port
	}

	if env := os.Getenv("MATCHSIM_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil {
			return port
		}
		fmt.Fprintf(os.Stderr, "ignoring invalid MATCHSIM_PORT %q\n", env)
	}

	return 0
}
