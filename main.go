package main

import "github.com/ecmacore/jsvm/cmd"

func main() {
	cmd.Execute()
}
