// main is the entry point of the devhealth CLI.
package main

import (
	"errors"
	"os"

	"github.com/huangsam/devhealth/cmd"
	"github.com/huangsam/devhealth/core"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseStores()
	if err == nil {
		return
	}

	var runErr *core.RunFailedError
	if errors.As(err, &runErr) {
		// The summary already listed each failed project
		contract.LogWarn("Scrape incomplete", err)
		os.Exit(1)
	}
	contract.LogFatal("Error", err)
}
