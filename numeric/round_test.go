package numeric

import "testing"

func TestRoundDirections(t *testing.T) {
	cases := []struct {
		name     string
		v        float64
		decimals int
		dir      Direction
		want     float64
	}{
		{"up ceils", 1.2301, 2, Up, 1.24},
		{"up exact stays", 1.23, 2, Up, 1.23},
		{"down floors", 1.2399, 2, Down, 1.23},
		{"nearest half up", 1.235, 2, Nearest, 1.24},
		{"nearest below half", 1.2349, 2, Nearest, 1.23},
		{"zero decimals", 2.5, 0, Up, 3},
		{"negative value down", -1.234, 2, Down, -1.24},
		{"budget quantity", 50.0 / 1.000, 2, Up, 50.00},
		{"sell margin", 50 * 0.999, 2, Nearest, 49.95},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Round(tc.v, tc.decimals, tc.dir)
			if got != tc.want {
				t.Fatalf("Round(%v,%d,%v) = %v, want %v", tc.v, tc.decimals, tc.dir, got, tc.want)
			}
		})
	}
}

func TestRoundIdempotent(t *testing.T) {
	values := []float64{0, 0.001, 1.005, 3.14159, 123.456789, 0.99999, 42}
	for _, dir := range []Direction{Up, Down, Nearest} {
		for _, v := range values {
			for d := 0; d <= 6; d++ {
				once := Round(v, d, dir)
				twice := Round(once, d, dir)
				if once != twice {
					t.Fatalf("not idempotent: Round(%v,%d,%v) = %v, re-round = %v", v, d, dir, once, twice)
				}
			}
		}
	}
}
