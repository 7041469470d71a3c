// Command paperctl validates corpus files and runs predictions offline.
package main

import (
	"log/slog"
	"os"
)

func main() {
	initLogging(false)

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}
