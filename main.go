package main

import "github.com/vkuzmenko/chippot/cmd"

func main() {
	cmd.Execute()
}
