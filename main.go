package main

import (
	"fmt"
	"os"

	"github.com/kilianp07/sweep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sweep:", err)
		os.Exit(1)
	}
}
