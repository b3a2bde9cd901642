package customHttpClient

import (
	"net/http"

	"github.com/mvembar/SyllabusAPI/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

var pooledClient = &http.Client{Transport: customTransport}

// Pooled returns the shared connection-pooling client used by the Mistral
// chat and embedding adapters. Per-request deadlines come from contexts,
// so the client itself carries no timeout.
func Pooled() *http.Client {
	return pooledClient
}
