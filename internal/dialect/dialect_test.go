package dialect

import "testing"

func TestParseAliases(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Dialect
	}{
		{"xm", XM},
		{" MOD ", XM},
		{"it", IT},
		{"S3M", IT},
	} {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := Parse("sid"); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
}

func TestString(t *testing.T) {
	if XM.String() != "xm" || IT.String() != "it" {
		t.Fatalf("unexpected names %q %q", XM, IT)
	}
}
