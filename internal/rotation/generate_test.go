package rotation

import (
	"strings"
	"testing"
)

func TestGeneratePasswordLengthAndAlphabet(t *testing.T) {
	gen := NewGenerator(32, 32)

	buf, err := gen.Password()
	if err != nil {
		t.Fatalf("Password: %v", err)
	}
	defer buf.Destroy()

	pw := buf.String()
	if len(pw) != 32 {
		t.Errorf("password length = %d, want 32", len(pw))
	}
	for _, c := range pw {
		if !strings.ContainsRune(passwordCharset, c) {
			t.Errorf("password contains character outside alphabet: %q", c)
		}
	}
}

func TestGeneratePasswordConfigurableLength(t *testing.T) {
	gen := NewGenerator(48, 32)
	buf, err := gen.Password()
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Destroy()

	if got := len(buf.String()); got != 48 {
		t.Errorf("password length = %d, want 48", got)
	}
}

func TestGenerateTokenHex(t *testing.T) {
	gen := NewGenerator(32, 32)

	buf, err := gen.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	defer buf.Destroy()

	token := buf.String()
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars for 32 bytes", len(token))
	}
	for _, c := range token {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("token contains non-hex character: %q", c)
		}
	}
}

func TestGeneratedValuesDiffer(t *testing.T) {
	gen := NewGenerator(32, 32)

	a, err := gen.Password()
	if err != nil {
		t.Fatal(err)
	}
	defer a.Destroy()
	b, err := gen.Password()
	if err != nil {
		t.Fatal(err)
	}
	defer b.Destroy()

	if a.String() == b.String() {
		t.Error("two generated passwords collided")
	}
}
