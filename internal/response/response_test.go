package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIs(t *testing.T) {
	notFound := NewError(http.StatusNotFound, "not found")

	wrapped := fmt.Errorf("lookup: %w", notFound)
	if !errors.Is(wrapped, notFound) {
		t.Error("wrapped error should match")
	}

	if errors.Is(notFound, NewError(http.StatusBadRequest, "not found")) {
		t.Error("different code should not match")
	}
	if errors.Is(notFound, NewError(http.StatusNotFound, "gone")) {
		t.Error("different message should not match")
	}
	if !errors.Is(notFound, NewError(http.StatusNotFound, "not found")) {
		t.Error("same code and message should match")
	}
}

func TestErrorAs(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NewError(http.StatusTeapot, "short and stout"))

	var respErr *Error
	if !errors.As(err, &respErr) {
		t.Fatal("errors.As failed")
	}
	if respErr.Code != http.StatusTeapot {
		t.Errorf("Code = %d", respErr.Code)
	}
	if respErr.Error() != "short and stout" {
		t.Errorf("Error() = %q", respErr.Error())
	}
}
