package email

import (
	"testing"
)

func TestClientConfigured(t *testing.T) {
	c := NewClient("", "larder@example.com", "https://larder.example.com")
	if c.Configured() {
		t.Error("expected unconfigured client without a server token")
	}

	c = NewClient("token", "larder@example.com", "https://larder.example.com")
	if !c.Configured() {
		t.Error("expected configured client with a server token")
	}
}

func TestSendPasswordResetUnconfigured(t *testing.T) {
	c := NewClient("", "larder@example.com", "https://larder.example.com")
	if err := c.SendPasswordReset("alice@example.com", "tok"); err == nil {
		t.Error("expected error from unconfigured client")
	}
}
