package status

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewAndCodeOf(t *testing.T) {
	base := errors.New("collection load failed")
	err := New(CollaboratorVector, base)
	if err == nil {
		t.Fatal("New returned nil for a non-nil error")
	}
	if CodeOf(err) != CollaboratorVector {
		t.Errorf("CodeOf = %d, want %d", CodeOf(err), CollaboratorVector)
	}
	if !errors.Is(err, base) {
		t.Error("coded error should unwrap to the base error")
	}
}

func TestNew_NilError(t *testing.T) {
	if err := New(DocumentEmpty, nil); err != nil {
		t.Fatalf("New(nil) = %v, want nil", err)
	}
}

func TestCodeOf_UncodedError(t *testing.T) {
	if got := CodeOf(fmt.Errorf("plain")); got != ErrorCodeInternal {
		t.Errorf("CodeOf = %d, want %d", got, ErrorCodeInternal)
	}
}
