package main

import (
	"github.com/zoynulabedin/snowlightv2-sub000/cmd"
)

func main() {
	cmd.Execute()
}
