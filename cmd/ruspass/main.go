package main

import (
	"github.com/ruspass-tech/ruspass/cmd/ruspass/cmd"
	"github.com/ruspass-tech/ruspass/internal/version"
)

func main() {
	cmd.SetVersionInfo(version.Info())
	cmd.Execute()
}
