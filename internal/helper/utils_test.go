package helper

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateUUID_Unique(t *testing.T) {
	a, err := GenerateUUID()
	if err != nil {
		t.Fatalf("uuid failed: %v", err)
	}
	b, _ := GenerateUUID()
	if a == b {
		t.Error("expected different ids")
	}
	if len(a) != 36 {
		t.Errorf("unexpected uuid format: %s", a)
	}
}

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyPrint(&buf, map[string]int{"chunks": 3}); err != nil {
		t.Fatalf("pretty print failed: %v", err)
	}
	if got := buf.String(); got != "{\n  \"chunks\": 3\n}\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestPrettyPrint_Unmarshalable(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyPrint(&buf, make(chan int)); err == nil {
		t.Error("expected error for channel")
	}
	if strings.TrimSpace(buf.String()) != "" {
		t.Error("nothing should be written on error")
	}
}
