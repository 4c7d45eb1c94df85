package main

import (
	"github.com/jjtimmons/breakend/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
