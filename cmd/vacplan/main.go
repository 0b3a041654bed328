package main

import (
	"os"
	_ "time/tzdata"

	appLog "vacplan/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		appLog.Error("vacplan failed", err)
		os.Exit(1)
	}
}
