package tg

import (
	"errors"
	"testing"
)

func TestIsSystemErr(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("Too Many Requests: retry after 5 (429)"), true},
		{errors.New("Bad Gateway 502"), true},
		{errors.New("net/http: request canceled (Client.Timeout exceeded) timeout"), true},
		{errors.New("Bad Request: chat not found"), false},
		{errors.New("Bad Request: message is not modified"), false},
	}
	for _, tt := range tests {
		if got := isSystemErr(tt.err); got != tt.want {
			t.Errorf("isSystemErr(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
