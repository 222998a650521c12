package main

import (
	"os"

	"github.com/mabhi256/inthunter/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
