package enums

import "testing"

func TestParseRoundTrips(t *testing.T) {
	for _, s := range validListingStatuses {
		got, err := ParseListingStatus(string(s))
		if err != nil || got != s {
			t.Fatalf("listing status %q: got %q err %v", s, got, err)
		}
	}
	for _, s := range validRequestStatuses {
		if got, err := ParseRequestStatus(string(s)); err != nil || got != s {
			t.Fatalf("request status %q: got %q err %v", s, got, err)
		}
	}
	for _, e := range validEventTypes {
		if got, err := ParseOutboxEventType(string(e)); err != nil || got != e {
			t.Fatalf("event %q: got %q err %v", e, got, err)
		}
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	if _, err := ParseListingStatus("deleted"); err == nil {
		t.Fatal("deleted is not a stored listing status")
	}
	if _, err := ParseFoodType("meat"); err == nil {
		t.Fatal("expected unknown food type to fail")
	}
	if _, err := ParseQuantityUnit("kg"); err == nil {
		t.Fatal("expected unknown unit to fail")
	}
}

func TestParseUserTypeIsCaseInsensitive(t *testing.T) {
	got, err := ParseUserType(" Shelter ")
	if err != nil || got != UserTypeShelter {
		t.Fatalf("got %q err %v", got, err)
	}
	if _, err := ParseUserType("admin"); err == nil {
		t.Fatal("expected admin to be rejected")
	}
}

func TestRequestStatusTerminal(t *testing.T) {
	if RequestStatusPending.IsTerminal() {
		t.Fatal("pending is not terminal")
	}
	if !RequestStatusAccepted.IsTerminal() || !RequestStatusRejected.IsTerminal() {
		t.Fatal("accepted and rejected are terminal")
	}
}
