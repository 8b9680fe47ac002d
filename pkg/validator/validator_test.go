package validator

import "testing"

func TestCheck_CollectsOnlyFailures(t *testing.T) {
	v := New()
	v.Check(true, "ok_field", "should not appear")
	v.Check(false, "bad_field", "must be provided")

	if v.Valid() {
		t.Fatalf("expected validator to be invalid")
	}
	if _, ok := v.Errors["ok_field"]; ok {
		t.Fatalf("passing check must not record an error")
	}
	if msg := v.Errors["bad_field"]; msg != "must be provided" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestAddError_KeepsFirstMessage(t *testing.T) {
	v := New()
	v.AddError("field", "first")
	v.AddError("field", "second")

	if v.Errors["field"] != "first" {
		t.Fatalf("first message must win, got %q", v.Errors["field"])
	}
}

func TestPermittedValue(t *testing.T) {
	if !PermittedValue("accepted", "received", "accepted", "completed") {
		t.Fatalf("accepted must be permitted")
	}
	if PermittedValue("unknown", "received", "accepted") {
		t.Fatalf("unknown must not be permitted")
	}
}
