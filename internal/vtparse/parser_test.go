package vtparse

import "testing"

func TestSimpleBytes(t *testing.T) {
	var ctx Context
	cases := []struct {
		in   string
		kind Kind
		n    int
	}{
		{"\x00", Ignore, 1},
		{"\x07", Bell, 1},
		{"\x08", Backspace, 1},
		{"\x7f", Delete, 1},
		{"\r", Return, 1},
		{"\n", Newline, 1},
		{"\t", Tab, 1},
		{"A", Codepoint, 1},
	}
	for _, c := range cases {
		n, cmd := Parse([]byte(c.in), &ctx)
		if n != c.n || cmd.Kind != c.kind {
			t.Errorf("Parse(%q) = (%d, %v), want (%d, %v)", c.in, n, cmd.Kind, c.n, c.kind)
		}
	}
}

func TestCSISGRTruecolor(t *testing.T) {
	var ctx Context
	n, cmd := Parse([]byte("\x1b[38;2;10;20;30mX"), &ctx)
	if cmd.Kind != CSI || cmd.Final != 'm' {
		t.Fatalf("got %+v", cmd)
	}
	if n != len("\x1b[38;2;10;20;30m") {
		t.Fatalf("consumed = %d", n)
	}
	want := []int{38, 2, 10, 20, 30}
	if ctx.NParams != len(want) {
		t.Fatalf("nparams = %d, want %d", ctx.NParams, len(want))
	}
	for i, w := range want {
		if ctx.Params[i].Value != w {
			t.Errorf("param[%d] = %d, want %d", i, ctx.Params[i].Value, w)
		}
	}
}

func TestCSIIncompleteThenRestart(t *testing.T) {
	var ctx Context
	n, cmd := Parse([]byte("\x1b[3"), &ctx)
	if cmd.Kind != Incomplete || n != 0 {
		t.Fatalf("expected incomplete with 0 consumed, got (%d, %+v)", n, cmd)
	}

	full := []byte("\x1b[38;5;200m")
	n, cmd = Parse(full, &ctx)
	if cmd.Kind != CSI || cmd.Final != 'm' {
		t.Fatalf("expected final CSI command, got %+v", cmd)
	}
	if n != len(full) {
		t.Errorf("consumed = %d, want %d", n, len(full))
	}
	want := []int{38, 5, 200}
	if ctx.NParams != len(want) {
		t.Fatalf("nparams = %d, want %d", ctx.NParams, len(want))
	}
	for i, w := range want {
		if ctx.Params[i].Value != w {
			t.Errorf("param[%d] = %d, want %d", i, ctx.Params[i].Value, w)
		}
	}
}

func TestOSCTitle(t *testing.T) {
	var ctx Context
	in := []byte("\x1b]0;hello\x07")
	n, cmd := Parse(in, &ctx)
	if cmd.Kind != OSC {
		t.Fatalf("got %+v", cmd)
	}
	if n != len(in) {
		t.Errorf("consumed = %d, want %d", n, len(in))
	}
	if got := string(in[cmd.ArgMin:cmd.ArgMax]); got != "hello" {
		t.Errorf("payload = %q, want %q", got, "hello")
	}
}

func TestUTF8RoundTrip(t *testing.T) {
	var ctx Context
	cases := []struct {
		in string
		r  rune
	}{
		{"é", 'é'},
		{"漢", '漢'},
		{"\U0001F600", '\U0001F600'},
	}
	for _, c := range cases {
		n, cmd := Parse([]byte(c.in), &ctx)
		if cmd.Kind != Codepoint || cmd.Rune != c.r {
			t.Errorf("Parse(%q) = %+v, want rune %U", c.in, cmd, c.r)
		}
		if n != len(c.in) {
			t.Errorf("consumed = %d, want %d", n, len(c.in))
		}
	}
}

func TestUTF8InvalidByte(t *testing.T) {
	var ctx Context
	n, cmd := Parse([]byte{0x80}, &ctx)
	if cmd.Kind != Invalid {
		t.Fatalf("got %+v", cmd)
	}
	if n < 1 || n > 4 {
		t.Errorf("consumed = %d, want in [1,4]", n)
	}
}

func TestPrefixProducesIncompleteOrPrefix(t *testing.T) {
	full := []byte("AB\x1b[H\x1b[2JCD")
	var ctx Context
	var commands []Kind
	var consumedTotal int
	buf := full
	for len(buf) > 0 {
		n, cmd := Parse(buf, &ctx)
		if cmd.Kind == Incomplete {
			break
		}
		commands = append(commands, cmd.Kind)
		buf = buf[n:]
		consumedTotal += n
	}
	// Parsing any proper prefix must yield a prefix of the full command
	// sequence, possibly ending in Incomplete, and never overrun it.
	for m := 0; m < consumedTotal; m++ {
		prefix := full[:m]
		var got []Kind
		for len(prefix) > 0 {
			n, cmd := Parse(prefix, &ctx)
			if cmd.Kind == Incomplete {
				break
			}
			if n > len(prefix) {
				t.Fatalf("prefix %q: parse overran: consumed %d of %d", full[:m], n, len(prefix))
			}
			got = append(got, cmd.Kind)
			prefix = prefix[n:]
		}
		if len(got) > len(commands) {
			t.Fatalf("prefix %q: %d commands, full stream has %d", full[:m], len(got), len(commands))
		}
		for i, k := range got {
			if k != commands[i] {
				t.Errorf("prefix %q: command %d = %v, want %v", full[:m], i, k, commands[i])
			}
		}
	}
}
