package main

import (
	"os"

	"github.com/golang/glog"
	"github.com/rustyeddy/drinkx/cmd/drinkx/cmd"
)

func main() {
	err := cmd.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
