package handler

import (
	"fmt"
	"strings"

	"minichat/internal/app/chat"
	"minichat/internal/app/db"
	"minichat/internal/app/storage"
	"minichat/internal/configs"
	"minichat/internal/pkg/auth/jwt"
)

// AppDeps bundles the collaborators shared by all HTTP handlers.
type AppDeps struct {
	Registry *chat.Registry
	Broker   *chat.Broker
	Verifier *jwt.Verifier
	Config   *configs.AppConfig
	Storage  storage.Service
	Store    *db.Store
}

// FullAssetURL resolves a stored object key to its public URL. An empty key
// resolves to an empty string.
func (d *AppDeps) FullAssetURL(key string) string {
	if key == "" {
		return ""
	}

	endpoint := strings.TrimRight(d.Config.S3Endpoint, "/")
	return fmt.Sprintf("%s/%s/%s", endpoint, d.Config.S3BucketName, key)
}
