package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "validation error",
			code:    "E080",
			wantMsg: "Required field missing",
			wantCat: CategoryValidation,
		},
		{
			name:    "catalog error",
			code:    "E020",
			wantMsg: "Product not found",
			wantCat: CategoryCatalog,
		},
		{
			name:    "config error",
			code:    "E121",
			wantMsg: "Invalid port number",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown command %q", "deploy")
	if err.Message != `unknown command "deploy"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" {
		t.Errorf("Code = %q, want empty", err.Code)
	}
	if err.Error() != `unknown command "deploy"` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New("E120").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find wrapped cause")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}

	outer := fmt.Errorf("loading: %w", err)
	if !stderrors.Is(outer, New("E120")) {
		t.Error("expected errors.Is to match by code through fmt wrapping")
	}
	if stderrors.Is(outer, New("E121")) {
		t.Error("expected different code not to match")
	}
	if CategoryOf(outer) != CategoryConfig {
		t.Errorf("CategoryOf = %q, want config", CategoryOf(outer))
	}
	if CategoryOf(cause) != "" {
		t.Errorf("CategoryOf(plain) = %q, want empty", CategoryOf(cause))
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E120") != nil {
		t.Error("FromError(nil) should be nil")
	}

	existing := New("E020")
	if got := FromError(fmt.Errorf("wrap: %w", existing), "E120"); got != existing {
		t.Error("FromError should return the existing ChronoError")
	}

	plain := fmt.Errorf("boom")
	got := FromError(plain, "E024")
	if got.Code != "E024" || got.Wrapped != plain {
		t.Errorf("FromError = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E080").
		WithFields("First name", "Valid email").
		WithSuggestion("Complete the form")

	out := err.Format()
	for _, want := range []string{
		"ERROR E080: Required field missing",
		"Missing: First name, Valid email",
		"Hint: Complete the form",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); got != "E080: Required field missing (First name, Valid email)" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E082").WithFields("Terms")
	var p Payload
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &p); jerr != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v", jerr)
	}
	if p.Code != "E082" || p.Category != CategoryValidation || len(p.Fields) != 1 {
		t.Errorf("payload = %+v", p)
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, New("E141"))
	if !strings.Contains(buf.String(), "E141") {
		t.Errorf("PrintError output = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, fmt.Errorf("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("PrintError output = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if len(wrapText("", 10)) != 0 {
		t.Error("empty text should produce no lines")
	}
}
