package cli

import (
	"bytes"
	"testing"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "DEVICE", "TEST", "STATUS")
	tbl.Row("leaf1", "VerifyL3MTU", "success")
	tbl.Row("spine10", "VerifyZeroTouch", "failure")
	tbl.Flush()

	want := "" +
		"DEVICE   TEST             STATUS\n" +
		"------   ----             ------\n" +
		"leaf1    VerifyL3MTU      success\n" +
		"spine10  VerifyZeroTouch  failure\n"
	if got := buf.String(); got != want {
		t.Errorf("table output =\n%q\nwant\n%q", got, want)
	}
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "DEVICE", "TEST")
	tbl.Flush()
	if buf.Len() != 0 {
		t.Errorf("empty table wrote %q, want nothing", buf.String())
	}
}

func TestTable_PrefixAndMultiline(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTableTo(&buf, "A", "B").WithPrefix("  ")
	tbl.Row("x", "line one\nline two")
	tbl.Flush()

	want := "" +
		"  A  B\n" +
		"  -  -\n" +
		"  x  line one line two\n"
	if got := buf.String(); got != want {
		t.Errorf("table output =\n%q\nwant\n%q", got, want)
	}
}
