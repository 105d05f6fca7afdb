package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "simple", id: "project-1", wantErr: false},
		{name: "underscores", id: "user_42", wantErr: false},
		{name: "single char", id: "a", wantErr: false},
		{name: "max length", id: strings.Repeat("x", 64), wantErr: false},
		{name: "empty", id: "", wantErr: true},
		{name: "too long", id: strings.Repeat("x", 65), wantErr: true},
		{name: "spaces", id: "project 1", wantErr: true},
		{name: "path traversal", id: "../etc", wantErr: true},
		{name: "unicode", id: "проект", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
