package main

import (
	"os"

	"DocMCP/internal/cli"
)

// 构建时通过 ldflags 注入
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}
