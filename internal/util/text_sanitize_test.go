package util

import "testing"

func TestSanitizeTextStripsNUL(t *testing.T) {
	got := SanitizeText("hello\x00world")
	if got != "helloworld" {
		t.Fatalf("unexpected sanitize result: %q", got)
	}
}

func TestSanitizeTextKeepsWhitespace(t *testing.T) {
	got := SanitizeText("a\tb\nc\x01d")
	if got != "a\tb\ncd" {
		t.Fatalf("unexpected sanitize result: %q", got)
	}
}
