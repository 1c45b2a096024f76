/*
Package handler provides the HTTP handlers and routing setup for the MiniChat Server.

This file contains the authenticated profile handlers: reading and updating
the profile text and obtaining a presigned upload URL for the avatar image.
*/
package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"minichat/internal/app/chat"
	"minichat/internal/pkg/auth/jwt"
	"minichat/internal/pkg/errs"
	"minichat/internal/pkg/logx"
	"minichat/internal/pkg/req"
	"minichat/internal/pkg/resp"
)

// MaxProfileRunes bounds the length of the free-form profile text.
const MaxProfileRunes = 2000

// HandleGetProfile retrieves the current authenticated user's profile.
func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		account, err := deps.Store.GetUserByID(r.Context(), identity.ID)
		if err != nil {
			logx.Warn("get_profile: user not found", "id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		var lastLoginResponse any
		if account.LastLoginAt.Valid {
			lastLoginResponse = account.LastLoginAt.Time.Format(time.RFC3339)
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": map[string]any{
				"id":          account.ID,
				"username":    account.Username,
				"profile":     account.Profile,
				"avatar":      deps.FullAssetURL(account.AvatarKey),
				"lastLoginAt": lastLoginResponse,
			},
		})
	}
}

type UpdateProfileInput struct {
	Profile   string `json:"profile"`
	AvatarKey string `json:"avatarKey"`
}

// HandleUpdateProfile replaces the authenticated user's profile text and,
// when an avatarKey is supplied, the avatar reference. A previously stored
// avatar object is deleted once it is replaced.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		var input UpdateProfileInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if utf8.RuneCountInString(input.Profile) > MaxProfileRunes {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		account, err := deps.Store.GetUserByID(r.Context(), identity.ID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		avatarKey := account.AvatarKey
		if input.AvatarKey != "" {
			expectedPrefix := avatarKeyPrefix(identity.ID)
			if !strings.HasPrefix(input.AvatarKey, expectedPrefix) {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			avatarKey = input.AvatarKey
		}

		if err := deps.Store.UpdateProfile(r.Context(), identity.ID, input.Profile, avatarKey); err != nil {
			logx.Error(err, "failed to update user profile", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if account.AvatarKey != "" && account.AvatarKey != avatarKey {
			if err := deps.Storage.Delete(r.Context(), account.AvatarKey); err != nil {
				logx.Warn("failed to delete replaced avatar object", "key", account.AvatarKey)
			}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": map[string]any{
				"id":       account.ID,
				"username": account.Username,
				"profile":  input.Profile,
				"avatar":   deps.FullAssetURL(avatarKey),
			},
		})
	}
}

type PresignAvatarInput struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// HandlePresignAvatarURL generates a time-limited, pre-signed URL for
// uploading an avatar image, scoped to the authenticated user.
func HandlePresignAvatarURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		var input PresignAvatarInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := chat.ValidateAvatarSize(input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := chat.ValidateAvatarType(input.FileName, input.MimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileExt := strings.ToLower(filepath.Ext(input.FileName))
		fileKey := fmt.Sprintf("%s%s%s", avatarKeyPrefix(identity.ID), uuid.New().String(), fileExt)

		url, err := deps.Storage.PresignUpload(
			r.Context(),
			fileKey,
			input.MimeType,
			input.FileSize,
			chat.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAvatarStorageFailed))
			return
		}

		data := map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
		}
		resp.RespondSuccess(w, r, data)
	}
}

// avatarKeyPrefix is the object key prefix every avatar of the given user
// must live under.
func avatarKeyPrefix(userID string) string {
	return fmt.Sprintf("avatars/%s/", userID)
}
