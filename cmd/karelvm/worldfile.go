package main

import (
	"encoding/json"
	"os"

	"karelvm"
)

// worldFile is the JSON shape a world file takes on disk: a flat,
// row-major GridSize*GridSize array of cell values (255 meaning wall)
// plus the robot's starting record. Cells is []uint16 and each value is
// truncated to a byte by loadWorldFile.
type worldFile struct {
	Cells []uint16 `json:"cells"`
	Robot struct {
		PX uint32 `json:"px"`
		PY uint32 `json:"py"`
		D  uint32 `json:"d"`
		HX uint32 `json:"hx"`
		HY uint32 `json:"hy"`
	} `json:"robot"`
}

func loadWorldFile(path string) ([]byte, karelvm.RobotRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, karelvm.RobotRecord{}, err
	}
	var wf worldFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, karelvm.RobotRecord{}, err
	}
	cells := make([]byte, len(wf.Cells))
	for i, v := range wf.Cells {
		cells[i] = byte(v)
	}
	rec := karelvm.RobotRecord{
		PX: wf.Robot.PX, PY: wf.Robot.PY, D: wf.Robot.D,
		HX: wf.Robot.HX, HY: wf.Robot.HY,
	}
	return cells, rec, nil
}
