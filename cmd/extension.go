package cmd

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"syscall"
)

const (
	EnvLedgerFile = "CFO_LEDGER_FILE"
	EnvCacheDir   = "CFO_CACHE_DIR"
	EnvHistoryDir = "CFO_HISTORY_DIR"
	EnvKeyDir     = "CFO_KEY_DIR"
	EnvReference  = "CFO_REFERENCE"
)

// RunExtension attempts to find and execute an external cfo-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found or executed.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "cfo-" + subcommand

	// Look for the external command in PATH
	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		// Command not found in PATH
		log.Printf("External command %q not found in PATH: %v", externalCmdName, err)
		return false, 0
	}

	// Found external command, execute it
	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// Pass global flags as environment variables
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, EnvLedgerFile+"="+*ledgerFile)
	cmd.Env = append(cmd.Env, EnvCacheDir+"="+*cacheDir)
	cmd.Env = append(cmd.Env, EnvHistoryDir+"="+*historyDir)
	cmd.Env = append(cmd.Env, EnvKeyDir+"="+*keyDir)
	cmd.Env = append(cmd.Env, EnvReference+"="+*reference)

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				return true, status.ExitStatus()
			}
		}
		// If it's not an ExitError or we can't get the status, report a generic error
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)

		return true, 1 // Indicate that an attempt was made, but it failed
	}

	return true, 0 // External command executed successfully with exit code 0
}

// Known reports whether name is a built-in subcommand.
func Known(name string) bool {
	for _, c := range Commands {
		if c.Name() == name {
			return true
		}
	}
	return false
}
