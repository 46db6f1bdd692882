package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSentinelHierarchy(t *testing.T) {
	if !errors.Is(ErrConfiguration, ErrValidation) {
		t.Error("ErrConfiguration should match ErrValidation")
	}
	if !errors.Is(ErrInvalidDefinition, ErrSchema) {
		t.Error("ErrInvalidDefinition should match ErrSchema")
	}
	if errors.Is(ErrSchema, ErrValidation) {
		t.Error("ErrSchema should not match ErrValidation")
	}
}

func TestEngineError_Is(t *testing.T) {
	get404 := &EngineError{Op: OpGetDocument, Target: "doc-1", Status: 404, Message: "not found"}
	if !errors.Is(get404, ErrEngine) {
		t.Error("expected ErrEngine")
	}
	if !errors.Is(get404, ErrDocumentNotFound) {
		t.Error("expected ErrDocumentNotFound for 404 on get")
	}
	if errors.Is(get404, ErrIndexNotFound) {
		t.Error("get 404 should not report ErrIndexNotFound")
	}

	del404 := &EngineError{Op: OpDeleteIndex, Target: "orders", Status: 404}
	if !errors.Is(del404, ErrIndexNotFound) {
		t.Error("expected ErrIndexNotFound for 404 on delete index")
	}

	getNoIndex := &EngineError{Op: OpGetDocument, Status: 404, Type: TypeIndexNotFound}
	if !errors.Is(getNoIndex, ErrIndexNotFound) || errors.Is(getNoIndex, ErrDocumentNotFound) {
		t.Error("get on a missing index should report ErrIndexNotFound only")
	}

	update404 := &EngineError{Op: OpUpdateDocument, Status: 404, Type: "document_missing_exception"}
	if !errors.Is(update404, ErrDocumentNotFound) {
		t.Error("expected ErrDocumentNotFound for 404 on update")
	}

	search500 := &EngineError{Op: OpSearch, Status: 500}
	if errors.Is(search500, ErrIndexNotFound) || errors.Is(search500, ErrDocumentNotFound) {
		t.Error("500 should not report not-found sentinels")
	}

	wrapped := fmt.Errorf("outer: %w", get404)
	var ee *EngineError
	if !errors.As(wrapped, &ee) || ee.Status != 404 {
		t.Errorf("errors.As failed, got %+v", ee)
	}
}

func TestEngineError_Message(t *testing.T) {
	err := &EngineError{Op: OpIndexDocument, Target: "doc-7", Status: 400, Message: "mapper_parsing_exception"}
	msg := err.Error()
	for _, want := range []string{"index document", `"doc-7"`, "400", "mapper_parsing_exception"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}

	noStatus := &EngineError{Op: OpSearch, Message: "connection refused"}
	if got := noStatus.Error(); got != "search: connection refused" {
		t.Errorf("message = %q", got)
	}
}

func TestBulkError(t *testing.T) {
	err := &BulkError{
		Index: "orders",
		Total: 3,
		Failures: []BulkFailure{
			{Position: 1, ID: "b", Status: 400, Reason: "failed to parse"},
		},
	}
	if !errors.Is(err, ErrEngine) {
		t.Error("BulkError should match ErrEngine")
	}
	if !strings.Contains(err.Error(), "1 of 3 items failed") {
		t.Errorf("message = %q", err.Error())
	}
}
