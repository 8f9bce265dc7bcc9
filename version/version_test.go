package version

import "testing"

func TestParseString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1.2.3"},
		{"1:1.2.3", "1:1.2.3"},
		{"1.2.3-4", "1.2.3-4"},
		{"2:1.0-beta", "2:1.0-beta"},
	}
	for _, tt := range tests {
		v, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got := v.String(); got != tt.want {
			t.Errorf("Parse(%q).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", ":1.0", "abc:1.0"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): want error, got nil", in)
		}
	}
}

func TestCompare(t *testing.T) {
	less := [][2]string{
		{"1.0", "1.1"},
		{"1.0", "1.0-1"},
		{"1.9", "1.10"},
		{"1.0~beta", "1.0"},
		{"1.0", "1.0a"},
		{"0:1.0", "1:0.1"},
		{"1.0-1", "1.0-2"},
		{"1.0-9", "1.0-10"},
	}
	for _, pair := range less {
		a, err := Parse(pair[0])
		if err != nil {
			t.Fatal(err)
		}
		b, err := Parse(pair[1])
		if err != nil {
			t.Fatal(err)
		}
		if !a.Less(b) {
			t.Errorf("expected %q < %q", pair[0], pair[1])
		}
		if b.Less(a) {
			t.Errorf("expected NOT %q < %q", pair[1], pair[0])
		}
	}
}

func TestEqual(t *testing.T) {
	a := MustParse("1.2.3")
	b := MustParse("1.2.3")
	if !a.Equal(b) {
		t.Errorf("expected %v == %v", a, b)
	}
	c := MustParse("0:1.2.3")
	if !a.Equal(c) {
		t.Errorf("expected implicit epoch 0 to equal explicit epoch 0: %v vs %v", a, c)
	}
}
