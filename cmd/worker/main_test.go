package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyjsx/academy/internal/events"
)

func TestDecodePostPublished(t *testing.T) {
	id := uuid.New()
	body, err := json.Marshal(events.NewPostPublished(id, "morning-riyaz", "Morning Riyaz", "", time.Now()))
	if err != nil {
		t.Fatal(err)
	}

	e, err := decodePostPublished(body)
	if err != nil || e == nil || e.Payload.PostID != id {
		t.Fatalf("got %+v, %v", e, err)
	}

	e, err = decodePostPublished([]byte(`{"type":"post.deleted"}`))
	if err != nil || e != nil {
		t.Errorf("other type: %+v, %v", e, err)
	}

	if _, err := decodePostPublished([]byte(`{`)); err == nil {
		t.Error("expected error for malformed body")
	}
}
