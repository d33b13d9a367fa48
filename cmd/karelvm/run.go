package main

import (
	"context"
	"fmt"
	"os"

	"karelvm"
)

func runCommand(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: karelvm run <image.kvm> <world.json> <symbol>")
	}
	imagePath, worldPath, symbol := args[0], args[1], args[2]

	v := karelvm.Init(nil)
	defer v.Destroy()

	if st := v.LoadBytecodeFile(imagePath); st != karelvm.StatusSuccess {
		return fmt.Errorf("load_bytecode: %s", st)
	}

	cells, rec, err := loadWorldFile(worldPath)
	if err != nil {
		return fmt.Errorf("load world file: %w", err)
	}
	if st := v.LoadWorld(cells, rec); st != karelvm.StatusSuccess {
		return fmt.Errorf("load_world: %s", st)
	}

	status := v.RunSymbol(context.Background(), symbol)
	fmt.Printf("%s: %s\n", symbol, statusColor(status.String()))
	if status != karelvm.StatusSuccess {
		os.Exit(1)
	}
	return nil
}
