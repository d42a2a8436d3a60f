package main

import "github.com/markb/driveshelf/cmd"

func main() {
	cmd.Execute()
}
