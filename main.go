// main is the entry point of the fragscan CLI.
package main

import (
	"github.com/huangsam/fragscan/cmd"
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		iocache.CloseStores() // LogFatal exits before deferred calls run
		contract.LogFatal("Command failed", err)
	}
}
