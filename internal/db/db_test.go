package db

import "testing"

func TestPingFailsClosedWithoutConnection(t *testing.T) {
	if err := Ping(nil); err == nil {
		t.Fatal("nil handle must not report ready")
	}
	if err := Ping(&DB{}); err == nil {
		t.Fatal("handle without a connection must not report ready")
	}
}

func TestCloseNilSafe(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Fatalf("Close(nil): %v", err)
	}
	if err := Close(&DB{}); err != nil {
		t.Fatalf("Close without connection: %v", err)
	}
}
