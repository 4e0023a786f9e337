package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/FCM-Registry/pkg/errors"
)

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			"Generic NotFound",
			errors.NotFound("not found"),
			true,
		},
		{
			"Record NotFound",
			errors.New(errors.ErrCodeRecordNotFound, "record not found"),
			true,
		},
		{
			"CID NotFound",
			errors.New(errors.ErrCodeCIDNotFound, "cid not found"),
			true,
		},
		{
			"Chemical NotFound",
			errors.New(errors.ErrCodeChemicalNotFound, "chemical not found"),
			true,
		},
		{
			"Object NotFound",
			errors.New(errors.ErrCodeObjectNotFound, "object not found"),
			true,
		},
		{
			"Empty range",
			errors.New(errors.ErrCodeRangeEmpty, "no records between 10 and 10"),
			true,
		},
		{
			"Internal Error",
			errors.Internal("internal error"),
			false,
		},
		{
			"Wrapped NotFound",
			errors.Wrap(errors.NotFound("not found"), errors.ErrCodeInternal, "wrapped"),
			true,
		},
		{
			"Plain error",
			fmt.Errorf("plain error"),
			false,
		},
		{
			"Nil error",
			nil,
			false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, errors.IsNotFound(tc.err))
		})
	}
}
