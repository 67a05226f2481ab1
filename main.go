package main

import "github.com/portablebuild/depbuilder/cmd"

func main() {
	cmd.Execute()
}
