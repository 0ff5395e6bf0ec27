// chatctl is a command-line client for the Dify relay: it streams chat
// turns through the relay, keeps a local conversation history, and manages
// the app registry.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
