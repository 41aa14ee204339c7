package xerrors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestDeriveKeepsSentinelIntact(t *testing.T) {
	err := ErrInvalidRectangle.Derive("rectangle %d is degenerate", 3).WithContext("index", 3)

	assert.True(t, errors.Is(err, ErrInvalidRectangle))
	assert.False(t, errors.Is(err, ErrUnknownStrategy))
	assert.Equal(t, "rectangle 3 is degenerate", err.Detail)
	assert.NotEqual(t, err.Detail, ErrInvalidRectangle.Detail)
	assert.Empty(t, ErrInvalidRectangle.Context)
}

func TestFromErrorThroughWrapping(t *testing.T) {
	base := ErrUnsupportedFormat.Derive("format %q", "xml")
	wrapped := fmt.Errorf("load dataset: %w", base)

	e, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeUnsupportedFormat, e.Code)

	_, ok = FromError(io.EOF)
	assert.False(t, ok)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		http int
		grpc codes.Code
	}{
		{ErrInvalidRectangle, http.StatusBadRequest, codes.InvalidArgument},
		{ErrIndexNotReady, http.StatusServiceUnavailable, codes.Unavailable},
		{WrapInternal(io.EOF, "read"), http.StatusInternalServerError, codes.Internal},
		{ErrObjectNotFound.Derive("rects.json"), http.StatusNotFound, codes.NotFound},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.http, tc.err.HTTPStatus(), tc.err.Error())
		assert.Equal(t, tc.grpc, tc.err.GRPCCode(), tc.err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, WrapInternal(nil, "noop"))
}
