package main

import "github.com/nanorelay/nanorelay/cmd"

func main() {
	cmd.Execute()
}
