package main

import (
	"github.com/whyfires/firescope/cmd"
)

func main() {
	cmd.Execute()
}
