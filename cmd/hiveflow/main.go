package main

import (
	"log/slog"

	"github.com/hiveflow/hiveflow/pkg/hiveflow"
)

func main() {

	//you may do your own logger setup here or use this default one with slog
	hiveflow.SetupLogger()

	if err := hiveflow.Start(nil); err != nil {
		slog.Error("Engine exited with error", "error", err)
	}
}
