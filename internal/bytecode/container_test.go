package bytecode

import "testing"

func TestContainerRoundTrip(t *testing.T) {
	im := NewImage()
	bodyPC := PC(len(im.Code))
	im.WriteHead(OpStep, CondNone, false)
	im.WriteHead(OpRetn, CondNone, false)

	st := NewSymbolTable()
	st.Insert("main", bodyPC)

	data := EncodeContainer(im, st)
	gotIm, gotSt, err := DecodeContainer(data)
	if err != nil {
		t.Fatalf("DecodeContainer: %v", err)
	}
	if string(gotIm.Code) != string(im.Code) {
		t.Fatalf("code mismatch: got %v want %v", gotIm.Code, im.Code)
	}
	pc, ok := gotSt.Lookup("main")
	if !ok || pc != bodyPC {
		t.Fatalf("Lookup(main) = (%d,%v), want (%d,true)", pc, ok, bodyPC)
	}
}

func TestDecodeContainerRejectsBadMagic(t *testing.T) {
	if _, _, err := DecodeContainer([]byte("not a container")); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestDecodeContainerRejectsMissingOffsetZeroRetn(t *testing.T) {
	im := &Image{Code: []byte{byte(OpStep)}}
	st := NewSymbolTable()
	data := EncodeContainer(im, st)
	if _, _, err := DecodeContainer(data); err == nil {
		t.Fatal("expected error when offset 0 is not RETN")
	}
}
