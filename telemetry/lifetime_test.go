package telemetry

import "testing"

func TestLifetimeTracker(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Record("a", 3)
	lt.Record("a", 2)
	lt.Record("b", 0)

	if got, ok := lt.Get("a"); !ok || got != 5 {
		t.Errorf("a = %d, %v; want 5, true", got, ok)
	}
	if _, ok := lt.Get("b"); !ok {
		t.Error("zero credit should still track the identity")
	}
	if lt.Count() != 2 {
		t.Errorf("count = %d, want 2", lt.Count())
	}

	all := lt.All()
	all["a"] = 100
	if got, _ := lt.Get("a"); got != 5 {
		t.Error("All should return a copy")
	}

	if got := lt.Remove("a"); got != 5 {
		t.Errorf("Remove returned %d, want 5", got)
	}
	if _, ok := lt.Get("a"); ok {
		t.Error("a still tracked after Remove")
	}
	if got := lt.Remove("missing"); got != 0 {
		t.Errorf("Remove(missing) = %d", got)
	}

	lt.Replace(map[string]int{"c": 7})
	if got, _ := lt.Get("c"); got != 7 || lt.Count() != 1 {
		t.Error("Replace did not install totals")
	}

	lt.Reset()
	if lt.Count() != 0 {
		t.Error("Reset left identities behind")
	}
}
