package reconcile

import (
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Russia", "russia"},
		{"  Côte d'Ivoire ", "cote d ivoire"},
		{"Tanzania, United Republic of", "tanzania united republic of"},
		{"TÜRKIYE", "turkiye"},
	}
	for _, tt := range tests {
		if got := Fold(tt.input); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCanonical(t *testing.T) {
	tbl := New(nil)
	tests := []struct {
		input string
		want  string
	}{
		{"Russian Federation", "Russia"},
		{"russia", "Russia"},
		{"RUSSIAN FEDERATION", "Russia"},
		{"Viet Nam", "Vietnam"},
		{"France", "France"},
		{" Atlantis ", "Atlantis"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := tbl.Canonical(tt.input)
			if got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := tbl.Canonical(got); again != got {
				t.Errorf("Canonical(Canonical(%q)) = %q, want %q", tt.input, again, got)
			}
		})
	}
}

func TestCanonical_ExtraOverridesBuiltin(t *testing.T) {
	tbl := New(map[string]string{"Russia": "Russian Federation"})
	for _, in := range []string{"Russia", "Russian Federation", "russia"} {
		got := tbl.Canonical(in)
		if got != "Russian Federation" {
			t.Errorf("Canonical(%q) = %q, want Russian Federation", in, got)
		}
		if tbl.Canonical(got) != got {
			t.Errorf("Canonical not idempotent for %q", in)
		}
	}
}

func TestJoin(t *testing.T) {
	tbl := New(nil)
	res := tbl.Join(
		[]string{"Russian Federation", "France", "Atlantis"},
		[]string{"russia", "France", "Mu"},
	)
	if len(res.Matched) != 2 {
		t.Fatalf("Matched = %+v, want 2 pairs", res.Matched)
	}
	if res.Matched[1].Canonical != "Russia" {
		t.Errorf("Matched[1].Canonical = %q, want Russia", res.Matched[1].Canonical)
	}
	if len(res.UnmatchedLeft) != 1 || res.UnmatchedLeft[0] != "Atlantis" {
		t.Errorf("UnmatchedLeft = %v, want [Atlantis]", res.UnmatchedLeft)
	}
	if len(res.UnmatchedRight) != 1 || res.UnmatchedRight[0] != "Mu" {
		t.Errorf("UnmatchedRight = %v, want [Mu]", res.UnmatchedRight)
	}
}

func TestMerge(t *testing.T) {
	type row struct {
		name  string
		value float64
	}
	tbl := New(nil)
	merged := Merge(tbl,
		[]row{{"Russian Federation", 70}, {"russia", 2}, {"France", 80}},
		func(r row) string { return r.name },
		func(a, b row) row { return row{a.name, a.value + b.value} })

	if len(merged) != 2 {
		t.Fatalf("Merge() = %v, want 2 entries", merged)
	}
	if got := merged["Russia"].value; got != 72 {
		t.Errorf("merged[Russia] = %v, want 72", got)
	}
}

func TestMerge_CaseAndAccentVariants(t *testing.T) {
	type row struct {
		name  string
		value float64
	}
	tbl := New(nil)
	rows := []row{{"Côte d'Ivoire", 1}, {"France", 2}, {"Cote d'Ivoire", 3}, {"france", 4}, {" FRANCE ", 5}}
	merged := Merge(tbl, rows,
		func(r row) string { return r.name },
		func(a, b row) row { return row{a.name, a.value + b.value} })

	if len(merged) != 2 {
		t.Fatalf("Merge() = %v, want 2 entries", merged)
	}
	if got := merged["Côte d'Ivoire"].value; got != 4 {
		t.Errorf("merged[Côte d'Ivoire] = %v, want 4", got)
	}
	if got := merged["France"].value; got != 11 {
		t.Errorf("merged[France] = %v, want 11", got)
	}

	// Every pair Join matches collapses to one merged record.
	res := tbl.Join([]string{"Côte d'Ivoire", "France"}, []string{"Cote d'Ivoire", "france"})
	if len(res.Matched) != len(merged) {
		t.Errorf("Join matched %d, Merge produced %d", len(res.Matched), len(merged))
	}
}
