package bytecode

import "testing"

func TestHeadRoundTrip(t *testing.T) {
	cases := []struct {
		op     Op
		cond   Cond
		invert bool
	}{
		{OpStep, CondNone, false},
		{OpBranch, CondIsWall, true},
		{OpBranchLinked, CondIsHome, false},
		{OpRepeat, CondNone, false},
	}
	for _, c := range cases {
		b := EncodeHead(c.op, c.cond, c.invert)
		op, cond, invert := DecodeHead(b)
		if op != c.op || cond != c.cond || invert != c.invert {
			t.Errorf("round trip %v: got (%v,%v,%v)", c, op, cond, invert)
		}
	}
}

func TestImageBranchOperand(t *testing.T) {
	im := NewImage()
	at := im.WriteHead(OpBranch, CondIsFlag, false)
	im.WriteBranchTarget(123456)
	if got := im.ReadBranchTarget(at); got != 123456 {
		t.Fatalf("ReadBranchTarget = %d, want 123456", got)
	}
}

func TestImageRepeatOperands(t *testing.T) {
	im := NewImage()
	at := im.WriteHead(OpRepeat, CondNone, false)
	im.WriteRepeatOperands(42, 999)
	top, count := im.ReadRepeat(at)
	if top != 42 || count != 999 {
		t.Fatalf("ReadRepeat = (%d,%d), want (42,999)", top, count)
	}
}

func TestNewImageStartsWithRetn(t *testing.T) {
	im := NewImage()
	if im.Code[0] != Offset0Retn {
		t.Fatalf("offset 0 = %d, want RETN (%d)", im.Code[0], Offset0Retn)
	}
}

func TestLen(t *testing.T) {
	cases := []struct {
		op   Op
		want int
	}{
		{OpStep, LenSimple},
		{OpLeft, LenSimple},
		{OpRetn, LenSimple},
		{OpStop, LenSimple},
		{OpBranch, LenBranch},
		{OpBranchLinked, LenBranch},
		{OpRepeat, LenRepeat},
	}
	for _, c := range cases {
		if got := Len(c.op); got != c.want {
			t.Errorf("Len(%v) = %d, want %d", c.op, got, c.want)
		}
	}
}

func TestSymbolTable(t *testing.T) {
	st := NewSymbolTable()
	st.Insert("main", 10)
	st.Insert("turnRight", 42)

	if pc, ok := st.Lookup("main"); !ok || pc != 10 {
		t.Fatalf("Lookup(main) = (%d,%v), want (10,true)", pc, ok)
	}
	if _, ok := st.Lookup("missing"); ok {
		t.Fatal("Lookup(missing) should fail")
	}
	if st.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", st.Len())
	}

	seen := map[string]PC{}
	st.Iterate(func(name string, pc PC) { seen[name] = pc })
	if len(seen) != 2 || seen["main"] != 10 || seen["turnRight"] != 42 {
		t.Fatalf("Iterate saw %v", seen)
	}

	st.Clear()
	if st.Len() != 0 {
		t.Fatal("Clear did not empty the table")
	}
	if _, ok := st.Lookup("main"); ok {
		t.Fatal("Lookup after Clear should fail")
	}
}

func TestSymbolTableReinsertOverwrites(t *testing.T) {
	st := NewSymbolTable()
	st.Insert("main", 10)
	st.Insert("main", 99)
	pc, ok := st.Lookup("main")
	if !ok || pc != 99 {
		t.Fatalf("Lookup(main) after reinsert = (%d,%v), want (99,true)", pc, ok)
	}
	if st.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", st.Len())
	}
}
