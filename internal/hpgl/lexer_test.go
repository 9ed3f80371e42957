package hpgl

import "testing"

func TestLexerBasicCommand(t *testing.T) {
	l := NewLexer([]byte("PA 1000,1000;"))
	cmd, ok := l.Next()
	if !ok {
		t.Fatal("expected a command")
	}
	if cmd.Mnemonic != "PA" {
		t.Fatalf("mnemonic = %q, want PA", cmd.Mnemonic)
	}
	if len(cmd.Args) != 2 {
		t.Fatalf("args = %d, want 2", len(cmd.Args))
	}
	if cmd.Args[0].Int != 1000 || cmd.Args[1].Int != 1000 {
		t.Fatalf("args = %+v", cmd.Args)
	}
}

func TestLexerLowercaseMnemonic(t *testing.T) {
	l := NewLexer([]byte("pa100,200;"))
	cmd, ok := l.Next()
	if !ok || cmd.Mnemonic != "PA" {
		t.Fatalf("got %+v, ok=%v", cmd, ok)
	}
}

func TestLexerMultipleCommands(t *testing.T) {
	l := NewLexer([]byte("IN;SP1;PA1000,1000;PD;PA2000,2000;"))
	var mnems []string
	for {
		cmd, ok := l.Next()
		if !ok {
			break
		}
		mnems = append(mnems, cmd.Mnemonic)
	}
	want := []string{"IN", "SP", "PA", "PD", "PA"}
	if len(mnems) != len(want) {
		t.Fatalf("got %v, want %v", mnems, want)
	}
	for i := range want {
		if mnems[i] != want[i] {
			t.Fatalf("got %v, want %v", mnems, want)
		}
	}
}

func TestLexerLBTerminatedByETX(t *testing.T) {
	l := NewLexer([]byte("LBhello\x03PA0,0;"))
	cmd, ok := l.Next()
	if !ok || cmd.Mnemonic != "LB" {
		t.Fatalf("got %+v", cmd)
	}
	if cmd.Args[0].Str != "hello" {
		t.Fatalf("str = %q", cmd.Args[0].Str)
	}
	cmd2, ok := l.Next()
	if !ok || cmd2.Mnemonic != "PA" {
		t.Fatalf("expected PA after LB, got %+v", cmd2)
	}
}

func TestLexerEmptyArgIsBad(t *testing.T) {
	l := NewLexer([]byte("PA1000,,2000;"))
	cmd, _ := l.Next()
	if len(cmd.Args) != 3 {
		t.Fatalf("args = %+v", cmd.Args)
	}
	if cmd.Args[1].Kind != ArgBad {
		t.Fatalf("middle arg = %+v, want ArgBad", cmd.Args[1])
	}
	if cmd.Err == nil {
		t.Fatal("expected a parse error for a bad argument")
	}
}

func TestLexerDecimalRounding(t *testing.T) {
	l := NewLexer([]byte("SI1.001,2.002;"))
	cmd, _ := l.Next()
	if cmd.Args[0].Kind != ArgDecimal {
		t.Fatalf("kind = %v", cmd.Args[0].Kind)
	}
	if cmd.Args[0].Dec != 1.0 {
		t.Fatalf("dec = %v, want rounding to nearest 1/256", cmd.Args[0].Dec)
	}
}

func TestLexerSMZeroOrOneChar(t *testing.T) {
	l := NewLexer([]byte("SM;PA0,0;"))
	cmd, ok := l.Next()
	if !ok || cmd.Mnemonic != "SM" || len(cmd.Args) != 0 {
		t.Fatalf("got %+v", cmd)
	}
	l2 := NewLexer([]byte("SMX;PA0,0;"))
	cmd2, _ := l2.Next()
	if len(cmd2.Args) != 1 || cmd2.Args[0].Str != "X" {
		t.Fatalf("got %+v", cmd2)
	}
}
