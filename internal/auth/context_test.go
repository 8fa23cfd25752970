package auth

import (
	"context"
	"testing"
)

func TestWithAuthRoundTrip(t *testing.T) {
	ac := AuthContext{UserID: "u1", Email: "alice@example.com", SessionID: 7}
	ctx := WithAuth(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected auth context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected no auth context on empty context")
	}
}

func TestUserIDHelper(t *testing.T) {
	if id := UserID(context.Background()); id != "" {
		t.Errorf("UserID on empty context = %q, want empty", id)
	}

	ctx := WithAuth(context.Background(), AuthContext{UserID: "u1"})
	if id := UserID(ctx); id != "u1" {
		t.Errorf("UserID = %q, want u1", id)
	}
}
