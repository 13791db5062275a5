package web

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestGetErrorMsg(t *testing.T) {
	t.Parallel()

	type request struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"min=3"`
		Kind  string `json:"kind" validate:"oneof=a b"`
	}

	v := validator.New()

	testCases := []struct {
		name string
		req  request
		want string
	}{
		{name: "Required", req: request{Name: "abc", Kind: "a"}, want: "Email field is required"},
		{name: "Email", req: request{Email: "x", Name: "abc", Kind: "a"}, want: "Email field must be a valid email"},
		{name: "Min", req: request{Email: "a@b.co", Name: "ab", Kind: "a"}, want: "Name field must be at least 3"},
		{name: "OneOf", req: request{Email: "a@b.co", Name: "abc", Kind: "c"}, want: "Kind field must be one of a b"},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := v.Struct(tc.req)
			require.Error(t, err)
			require.Equal(t, tc.want, GetErrorMsg(err))
		})
	}

	require.Equal(t, "boom", GetErrorMsg(errors.New("boom")))
}

func TestError(t *testing.T) {
	t.Parallel()

	require.Equal(t, Response{Error: "boom"}, Error(errors.New("boom")))
}
