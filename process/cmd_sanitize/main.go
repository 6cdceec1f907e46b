package main

import (
	"capsolve/pkg/config"
	"capsolve/process/sanitize"
)

func main() {
	config.LoadDotEnv()
	sanitize.Run()
}
