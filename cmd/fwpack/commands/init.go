package commands

import (
	"fmt"

	"git.home.luguber.info/inful/fwpack/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing settings file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(root.Config, i.Force)
}

func RunInit(path string, force bool) error {
	fmt.Printf("Writing settings to %s\n", path)
	if err := config.Init(path, force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	fmt.Println("initialized successfully")
	return nil
}
