package plateau

import "testing"

func TestCanonValue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "integer stays short", in: "5", want: "5"},
		{name: "float collapses to integer form", in: "5.0", want: "5"},
		{name: "trailing zeros trimmed", in: "0.50", want: "0.5"},
		{name: "epsilon noise rounds away", in: "4.9999999999999", want: "5"},
		{name: "negative value", in: "-0.30", want: "-0.3"},
		{name: "whitespace trimmed", in: " 10 ", want: "10"},
		{name: "non-numeric passes through", in: "close", want: "close"},
		{name: "nan is not numeric", in: "NaN", want: "NaN"},
		{name: "scientific notation normalizes", in: "1e2", want: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonValue(tt.in); got != tt.want {
				t.Errorf("CanonValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSortValuesNumericAware(t *testing.T) {
	values := []string{"100", "20", "3", "close", "open", "-1"}
	sortValues(values)

	want := []string{"-1", "3", "20", "100", "close", "open"}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("sortValues order = %v, want %v", values, want)
		}
	}
}
