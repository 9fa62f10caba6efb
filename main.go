package main

import "github.com/httprelay/relaypoll/cmd"

func main() {
	cmd.Execute()
}
