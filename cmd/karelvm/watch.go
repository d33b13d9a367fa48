package main

import (
	"context"
	"fmt"
	"net/http"

	"karelvm"
	"karelvm/internal/events"
)

func watchCommand(args []string) error {
	addr := ":8089"
	var positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--ws" && i+1 < len(args) {
			addr = args[i+1]
			i++
			continue
		}
		positional = append(positional, args[i])
	}
	if len(positional) != 3 {
		return fmt.Errorf("usage: karelvm watch <image.kvm> <world.json> <symbol> --ws :8089")
	}
	imagePath, worldPath, symbol := positional[0], positional[1], positional[2]

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

	tap := events.NewWebSocketTap(v.Events)
	server := &http.Server{Addr: addr, Handler: tap}
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.ListenAndServe() }()

	fmt.Printf("watching %s on ws://%s\n", symbol, addr)
	status := v.RunSymbol(context.Background(), symbol)
	fmt.Printf("%s: %s\n", symbol, statusColor(status.String()))

	_ = server.Close()
	<-serverErr
	return nil
}
