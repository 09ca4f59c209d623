// main.go
//
// Entry point; the Cobra commands live in cmd/root.go.

package main

import (
	"github.com/inference-sim/queueing-sim/cmd"
)

func main() {
	cmd.Execute()
}
