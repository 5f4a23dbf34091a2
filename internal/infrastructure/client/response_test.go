package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message": "Customer with id 9 was not found."}`, "Customer with id 9 was not found."},
		{"message preferred over error", `{"error": "Not Found", "message": "missing"}`, "missing"},
		{"error string", `{"error": "Bad Request"}`, "Bad Request"},
		{"nested error", `{"error": {"code": "X", "message": "nested"}}`, "nested"},
		{"msg field", `{"msg": "short"}`, "short"},
		{"blank message falls through", `{"message": "  ", "msg": "used"}`, "used"},
		{"no known field", `{"status": 500}`, ""},
		{"not json", `<html>oops</html>`, ""},
		{"empty", ``, ""},
		{"array", `[]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseErrorMessage([]byte(tt.body)))
		})
	}
}
