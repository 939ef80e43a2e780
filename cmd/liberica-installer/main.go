package main

import (
	"github.com/oshokin/liberica-installer/cmd/liberica-installer/cmd"
)

func main() {
	cmd.Execute()
}
