// Lolprox probes the local League client APIs ahead of proximity voice chat work.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/lolprox/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if cmd.IsClientUnavailable(err) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", cmd.UnavailableReason(err), err)
			os.Exit(1)
		}
		log.Fatal(err)
	}
}
