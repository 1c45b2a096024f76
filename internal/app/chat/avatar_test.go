package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"minichat/internal/pkg/errs"
)

func TestValidateAvatarSize(t *testing.T) {
	req := require.New(t)

	req.Nil(ValidateAvatarSize(1024))
	req.Nil(ValidateAvatarSize(MaxAvatarSize))

	customErr := ValidateAvatarSize(0)
	req.NotNil(customErr)
	req.Equal(errs.ErrInvalidParams, customErr.Code)

	customErr = ValidateAvatarSize(MaxAvatarSize + 1)
	req.NotNil(customErr)
	req.Equal(errs.ErrAvatarSizeInvalid, customErr.Code)
}

func TestValidateAvatarType(t *testing.T) {
	req := require.New(t)

	req.Nil(ValidateAvatarType("me.png", "image/png"))
	req.Nil(ValidateAvatarType("me.JPG", "image/jpeg"))

	// Disallowed MIME type.
	customErr := ValidateAvatarType("me.gif", "image/gif")
	req.NotNil(customErr)
	req.Equal(errs.ErrAvatarTypeInvalid, customErr.Code)

	// Extension and MIME type must agree.
	customErr = ValidateAvatarType("me.png", "image/jpeg")
	req.NotNil(customErr)
	req.Equal(errs.ErrAvatarTypeInvalid, customErr.Code)

	// Missing extension.
	customErr = ValidateAvatarType("avatar", "image/png")
	req.NotNil(customErr)
	req.Equal(errs.ErrAvatarTypeInvalid, customErr.Code)
}
