package wire

import "testing"

func TestParseSplitsOnFirstTwoColons(t *testing.T) {
	req, err := Parse("write:hello:a:b:c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Cmd != CmdWrite || req.Arg1 != "hello" || req.Arg2 != "a:b:c" {
		t.Errorf("got %+v, want cmd=write arg1=hello arg2=a:b:c", req)
	}
}

func TestParseEmptyArgsForm(t *testing.T) {
	req, err := Parse("list::")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Cmd != CmdList || req.Arg1 != "" || req.Arg2 != "" {
		t.Errorf("got %+v, want empty arg1/arg2", req)
	}
}

func TestParseTwoPartForm(t *testing.T) {
	req, err := Parse("heartbeat:3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Cmd != CmdHeartbeat || req.Arg1 != "3" || req.Arg2 != "" {
		t.Errorf("got %+v, want cmd=heartbeat arg1=3", req)
	}
}

func TestParseRejectsNoColon(t *testing.T) {
	if _, err := Parse("garbage"); err != ErrMalformed {
		t.Errorf("got err=%v, want ErrMalformed", err)
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	raw := Encode(CmdWrite, "f", "3:body with: colons")
	req, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Cmd != CmdWrite || req.Arg1 != "f" || req.Arg2 != "3:body with: colons" {
		t.Errorf("round trip mismatch: %+v", req)
	}
}

func TestBodyAppendsWarnings(t *testing.T) {
	got := Body("abc", []string{"Chunk 1 unavailable (node failure)"})
	want := "abcWARNING: Chunk 1 unavailable (node failure)\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBodyNoWarnings(t *testing.T) {
	if got := Body("abc", nil); got != "abc" {
		t.Errorf("got %q, want %q", got, "abc")
	}
}
