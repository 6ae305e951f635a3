package main

import (
	"fmt"
	"os"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
