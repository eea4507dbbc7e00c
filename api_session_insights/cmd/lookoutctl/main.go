package main

import (
	"fmt"
	"os"

	"frameworks/api_session_insights/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(cli.DefaultBackends()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
