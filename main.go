package main

import "github.com/umn-ldmx/ldmx-batch/cmd"

func main() {
	cmd.Execute()
}
