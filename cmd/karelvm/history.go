package main

import (
	"context"
	"fmt"

	"karelvm/internal/history"
)

func historyCommand(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: karelvm history <driver> <dsn> <vm-id>")
	}
	driver, dsn, vmID := args[0], args[1], args[2]

	store, err := history.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), vmID, 20)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no runs recorded for", vmID)
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %-8s %-12s %6dms  (%d,%d,%d)\n",
			r.StartedAt.Format("2006-01-02T15:04:05"), r.RunID[:8], statusColor(r.Status),
			r.Duration.Milliseconds(), r.RobotX, r.RobotY, r.RobotD)
	}
	return nil
}
