package robot

import "testing"

func TestTurnLeftFourTimesIsIdentity(t *testing.T) {
	r := &Robot{Facing: East}
	for i := 0; i < 4; i++ {
		r.TurnLeft()
	}
	if r.Facing != East {
		t.Fatalf("facing after 4 turns = %d, want %d", r.Facing, East)
	}
}

func TestPreviewStepTable(t *testing.T) {
	const size = 20
	cases := []struct {
		facing int
		x, y   int
		wantX  int
		wantY  int
		wantOK bool
	}{
		{North, 5, 5, 5, 6, true},
		{West, 5, 5, 4, 5, true},
		{South, 5, 5, 5, 4, true},
		{East, 5, 5, 6, 5, true},
		{North, 5, size - 1, 0, 0, false},
		{West, 0, 5, 0, 0, false},
		{South, 5, 0, 0, 0, false},
		{East, size - 1, 5, 0, 0, false},
	}
	for _, c := range cases {
		r := &Robot{X: c.x, Y: c.y, Facing: c.facing}
		x, y, ok := r.PreviewStep(size)
		if ok != c.wantOK {
			t.Errorf("facing=%d pos=(%d,%d): ok=%v, want %v", c.facing, c.x, c.y, ok, c.wantOK)
			continue
		}
		if ok && (x != c.wantX || y != c.wantY) {
			t.Errorf("facing=%d pos=(%d,%d): got (%d,%d), want (%d,%d)", c.facing, c.x, c.y, x, y, c.wantX, c.wantY)
		}
	}
}

func TestIsHome(t *testing.T) {
	r := &Robot{X: 5, Y: 5, HomeX: 5, HomeY: 5}
	if !r.IsHome() {
		t.Fatal("expected IsHome true")
	}
	r.X = 6
	if r.IsHome() {
		t.Fatal("expected IsHome false after move")
	}
}

func TestPreviewStepDoesNotMutate(t *testing.T) {
	r := &Robot{X: 5, Y: 5, Facing: North}
	_, _, _ = r.PreviewStep(20)
	if r.X != 5 || r.Y != 5 || r.Facing != North {
		t.Fatal("PreviewStep mutated the robot")
	}
}
