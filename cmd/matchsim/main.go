package main

import "github.com/datalife-sim/matchsim/cmd/matchsim/cmd"

func main() {
	cmd.Execute()
}
