package cron

import "testing"

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	a, b := &testJob{name: "a"}, &testJob{name: "b"}
	registry := NewRegistry(a, nil)
	if err := registry.Register(b); err != nil {
		t.Fatalf("Register: %v", err)
	}

	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0] != a || jobs[1] != b {
		t.Fatalf("unexpected jobs %v", jobs)
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("internal slice leaked")
	}
	if names := registry.Names(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry(&testJob{name: "a"})
	if err := registry.Register(&testJob{name: "a"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if len(registry.Jobs()) != 1 {
		t.Fatal("duplicate was stored")
	}
}
