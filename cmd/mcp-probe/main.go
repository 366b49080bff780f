// Command mcp-probe spawns an mcp-server binary, runs a scripted session
// against it over stdin/stdout and reports each step. It exits non-zero when
// any step fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/fatih/color"
	"github.com/light-autom8/mcp-server-go/internal/probe"
)

func main() {
	server := flag.String("server", "mcp-server", "path of the server binary to spawn")
	timeout := flag.Duration("timeout", 10*time.Second, "overall timeout for the session")
	verbose := flag.Bool("v", false, "print raw responses and server stderr")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	os.Exit(run(*server, flag.Args(), *timeout, *verbose))
}

func run(server string, args []string, timeout time.Duration, verbose bool) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, server, args...)
	cmd.Stderr = io.Discard
	if verbose {
		cmd.Stderr = os.Stderr
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		color.Red("stdin pipe: %v", err)
		return 2
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		color.Red("stdout pipe: %v", err)
		return 2
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("starting %s\n", server)
	if err := cmd.Start(); err != nil {
		color.Red("start server: %v", err)
		return 2
	}

	steps := probe.DefaultSteps()
	results := probe.Run(ctx, probe.NewClient(stdin, stdout), steps)
	failed := probe.Report(os.Stdout, results, verbose)
	if len(results) < len(steps) {
		color.Red("session aborted after %d of %d steps", len(results), len(steps))
		failed++
	}

	// Closing stdin is a clean shutdown for the server.
	_ = stdin.Close()
	if err := cmd.Wait(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "server exited: %v\n", err)
		failed++
	}
	cyan.Println("server stopped")

	if failed > 0 {
		return 1
	}
	return 0
}
