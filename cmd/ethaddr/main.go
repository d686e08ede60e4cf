package main

import (
	"fmt"
	"os"

	"ethaddr/internal/cli"
	"ethaddr/pkg/logx"
)

func main() {
	err := cli.NewRunner().Command().Execute()
	if err != nil {
		logx.S().Errorw("ethaddr failed", "err", err)
	}
	logx.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ethaddr: %v\n", err)
		os.Exit(1)
	}
}
