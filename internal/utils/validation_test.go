package utils

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
		errMsg  string
	}{
		{name: "line code", id: "T4", wantErr: false},
		{name: "station code", id: "126", wantErr: false},
		{name: "dotted id", id: "L9.N", wantErr: false},
		{name: "empty", id: "", wantErr: true, errMsg: "id cannot be empty"},
		{name: "too long", id: strings.Repeat("a", 101), wantErr: true, errMsg: "id too long (max 100 characters)"},
		{name: "script tag", id: "T4<script>", wantErr: true, errMsg: "id contains invalid characters"},
		{name: "path traversal", id: "../etc", wantErr: true, errMsg: "id contains invalid characters"},
		{name: "space", id: "T 4", wantErr: true, errMsg: "id contains invalid characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.wantErr {
				assert.EqualError(t, err, tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"gtfs code", "BX01", false},
		{"accented name", "Francesc Macià", false},
		{"apostrophe", "Ca l'Aranyó", false},
		{"blank", "   ", true},
		{"too long", strings.Repeat("á", 201), true},
		{"html", "<b>Glòries</b>", true},
		{"sql comment", "x' --", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePayload(t *testing.T) {
	assert.NoError(t, ValidatePayload(`{"stop":"FM01"}`))
	assert.Error(t, ValidatePayload(""))
	assert.Error(t, ValidatePayload(strings.Repeat("x", 4097)))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Glòries", SanitizeInput("  <i>Glòries</i> "))
	assert.Equal(t, "plain", SanitizeInput("plain"))
}

func TestValidateAndSanitizeQuery(t *testing.T) {
	got, err := ValidateAndSanitizeQuery("  Macià ")
	assert.NoError(t, err)
	assert.Equal(t, "Macià", got)

	_, err = ValidateAndSanitizeQuery("<script>")
	assert.Error(t, err)
}
