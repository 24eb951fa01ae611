package main

import "github.com/layer-3/turfbook/cmd/turf/cmd"

func main() {
	cmd.Execute()
}
