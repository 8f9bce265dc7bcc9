/*
kan is a reference command-line front-end over the core packages: it
wires kanconfig, registry, resolver, and sanity together into the
update/install/remove/list subcommands sketched in spec.md §6. It is
deliberately thin — the interesting engineering lives in the core
packages this command merely drives.
*/
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes, per spec.md §6: 0=ok, 1=generic error, 2=unsatisfied
// relationships, 3=conflicts.
const (
	exitOK           = 0
	exitGenericError = 1
	exitUnsatisfied  = 2
	exitConflicts    = 3
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "kan",
	Short:         "A mod package manager core driver",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	log.SetFlags(0)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config.json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		code := exitGenericError
		if ec, ok := err.(exitCoder); ok {
			code = ec.ExitCode()
		}
		fmt.Fprintln(os.Stderr, "kan:", err)
		os.Exit(code)
	}
}

// exitCoder lets a subcommand's returned error carry a specific exit
// code (unsatisfied relationships, conflicts) instead of the generic
// one.
type exitCoder interface {
	error
	ExitCode() int
}

type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }
func (e *codedError) ExitCode() int { return e.code }

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.json"
	}
	return dir + "/kan/config.json"
}
