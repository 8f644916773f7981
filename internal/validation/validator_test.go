// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package validation

import (
	"strings"
	"testing"
)

type likeInput struct {
	ItemID  string `json:"item_id" validate:"required,identifier"`
	ActorID string `json:"actor_id" validate:"required,identifier"`
	Title   string `json:"title" validate:"omitempty,max=8"`
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}

func TestValidIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"m1", true},
		{"tmdb:603", true},
		{"user@example.com", true},
		{"a.b_c-d", true},
		{"", false},
		{"has space", false},
		{"slash/inside", false},
		{"emoji🎬", false},
		{strings.Repeat("x", MaxIdentifierLength), true},
		{strings.Repeat("x", MaxIdentifierLength+1), false},
	}
	for _, tt := range tests {
		if got := ValidIdentifier(tt.in); got != tt.want {
			t.Errorf("ValidIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      likeInput
		wantFields []string
	}{
		{"valid", likeInput{ItemID: "m1", ActorID: "alice"}, nil},
		{"missing item", likeInput{ActorID: "alice"}, []string{"item_id"}},
		{"bad actor", likeInput{ItemID: "m1", ActorID: "al ice"}, []string{"actor_id"}},
		{"long title", likeInput{ItemID: "m1", ActorID: "a", Title: "far too long"}, []string{"title"}},
		{"everything wrong", likeInput{ItemID: "", ActorID: ""}, []string{"item_id", "actor_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(tt.input)
			if len(tt.wantFields) == 0 {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			got := verr.Errors()
			if len(got) != len(tt.wantFields) {
				t.Fatalf("got %d errors, want %d: %v", len(got), len(tt.wantFields), verr)
			}
			for i, f := range tt.wantFields {
				if got[i].Field != f {
					t.Errorf("error %d field = %q, want %q", i, got[i].Field, f)
				}
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(likeInput{ActorID: "alice"}).ToAPIError()
	if single.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", single.Code)
	}
	if single.Message != "item_id is required" {
		t.Errorf("Message = %q", single.Message)
	}
	if single.Details["field"] != "item_id" {
		t.Errorf("Details = %v", single.Details)
	}

	multi := ValidateStruct(likeInput{}).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Errorf("multi Details = %v", multi.Details)
	}
}
