package internal

import (
	"pardeep1916P/storeit-api/internal/blob"
	"pardeep1916P/storeit-api/internal/identity"
	"pardeep1916P/storeit-api/internal/service"
	"pardeep1916P/storeit-api/internal/store"
)

type Deps struct {
	Store    store.Store
	Blobs    blob.Store
	Identity identity.Provider
	Resolver *identity.Resolver
	Uploads  *service.Uploads
	Files    *service.Files
	Sharing  *service.Sharing
	Recovery *service.Recovery

	// Services names the backends in use, reported by the health check
	Services map[string]string
}
