package main

import "github.com/mpapenbr/lorawan-service-manager/cmd"

func main() {
	cmd.Execute()
}
