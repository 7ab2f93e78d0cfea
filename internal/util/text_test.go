package util

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "brackets", input: "SGT Smith (John)", want: "SGT SMITH JOHN"},
		{name: "spacing", input: "  cpl   O’Brien ", want: "CPL O'BRIEN"},
		{name: "hyphen kept", input: "CDT Smith-Jones", want: "CDT SMITH-JONES"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeName(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDiceCoefficient(t *testing.T) {
	if got := DiceCoefficient("SMITH", "SMITH"); got != 1 {
		t.Fatalf("identical=%v", got)
	}
	if got := DiceCoefficient("SMITH", ""); got != 0 {
		t.Fatalf("empty=%v", got)
	}
	if got := DiceCoefficient("SMITH", "SMYTH"); got <= 0.4 || got >= 1 {
		t.Fatalf("near=%v", got)
	}
}
