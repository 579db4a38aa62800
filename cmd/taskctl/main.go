// Command taskctl is a terminal client for the task board API.
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := execute(version, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
