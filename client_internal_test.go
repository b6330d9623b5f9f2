package wlsimple

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunError(t *testing.T) {
	live := context.Background()
	done, cancel := context.WithCancel(context.Background())
	cancel()

	deadline := &net.OpError{Op: "read", Net: "unix", Err: os.ErrDeadlineExceeded}
	protoErr := fmt.Errorf("dispatch: %w", io.ErrUnexpectedEOF)

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want error
	}{
		{"cancelled read", done, deadline, nil},
		{"eof after cancel", done, io.EOF, io.EOF},
		{"transport error after cancel", done, protoErr, protoErr},
		{"deadline without cancel", live, deadline, deadline},
		{"eof", live, io.EOF, io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runError(tt.ctx, tt.err))
		})
	}
}
