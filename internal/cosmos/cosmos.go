package cosmos

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Provider produces a connected, authorized Cosmos DB client for an endpoint.
type Provider interface {
	NewClient(endpoint string, opts *azcosmos.ClientOptions) (*azcosmos.Client, error)
}

type tokenProvider struct {
	cred azcore.TokenCredential
}

func (p tokenProvider) NewClient(endpoint string, opts *azcosmos.ClientOptions) (*azcosmos.Client, error) {
	return azcosmos.NewClient(endpoint, p.cred, opts)
}

type keyProvider struct {
	key string
}

func (p keyProvider) NewClient(endpoint string, opts *azcosmos.ClientOptions) (*azcosmos.Client, error) {
	cred, err := azcosmos.NewKeyCredential(p.key)
	if err != nil {
		return nil, fmt.Errorf("cosmos, invalid account key, %w", err)
	}
	return azcosmos.NewClientWithKey(endpoint, cred, opts)
}

// ProviderFor selects the credential strategy named by c.Auth. An empty
// Auth means the default Azure credential chain.
func ProviderFor(c Config) (Provider, error) {
	switch c.Auth {
	case "", AuthDefault:
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("cosmos, failed to create default credential, %w", err)
		}
		return tokenProvider{cred: cred}, nil

	case AuthKey:
		if c.Key == "" {
			return nil, errors.New("cosmos key is required when using key authentication")
		}
		return keyProvider{key: c.Key}, nil

	case AuthChained:
		mi, err := azidentity.NewManagedIdentityCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("cosmos, failed to create managed identity credential, %w", err)
		}
		cli, err := azidentity.NewAzureCLICredential(nil)
		if err != nil {
			return nil, fmt.Errorf("cosmos, failed to create azure cli credential, %w", err)
		}
		cred, err := azidentity.NewChainedTokenCredential([]azcore.TokenCredential{mi, cli}, nil)
		if err != nil {
			return nil, fmt.Errorf("cosmos, failed to chain credentials, %w", err)
		}
		return tokenProvider{cred: cred}, nil

	case AuthServicePrincipal:
		if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
			return nil, errors.New("cosmos service principal authentication requires tenant ID, client ID and client secret")
		}
		cred, err := azidentity.NewClientSecretCredential(c.TenantID, c.ClientID, c.ClientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("cosmos, failed to create service principal credential, %w", err)
		}
		return tokenProvider{cred: cred}, nil

	case AuthEmulator:
		key := c.Key
		if key == "" {
			key = EmulatorKey
		}
		return keyProvider{key: key}, nil
	}
	return nil, fmt.Errorf("unknown cosmos auth strategy %q", c.Auth)
}

// emulatorTransport accepts the emulator's self-signed certificate.
func emulatorTransport() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		},
	}
}

// isLoopback reports whether endpoint points at this machine.
func isLoopback(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// clientOptions skips certificate checks only for an emulator on loopback.
func clientOptions(l log.Logger, auth, endpoint string) *azcosmos.ClientOptions {
	opts := &azcosmos.ClientOptions{}
	if auth != AuthEmulator {
		return opts
	}
	if !isLoopback(endpoint) {
		level.Warn(l).Log("msg", "emulator auth with a remote endpoint, keeping TLS verification", "endpoint", endpoint)
		return opts
	}
	opts.ClientOptions = azcore.ClientOptions{Transport: emulatorTransport()}
	return opts
}

// NewClient builds the Cosmos DB client described by c.
func NewClient(l log.Logger, c Config) (*azcosmos.Client, error) {
	if l == nil {
		l = log.NewNopLogger()
	}
	endpoint := c.Endpoint
	if c.Auth == AuthEmulator && endpoint == "" {
		endpoint = EmulatorEndpoint
	}
	opts := clientOptions(l, c.Auth, endpoint)
	if endpoint == "" {
		return nil, errors.New("cosmos endpoint is required")
	}

	p, err := ProviderFor(c)
	if err != nil {
		return nil, err
	}
	auth := c.Auth
	if auth == "" {
		auth = AuthDefault
	}
	level.Info(l).Log("msg", "connecting to cosmos db", "endpoint", endpoint, "auth", auth)

	client, err := p.NewClient(endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("cosmos, failed to create client, %w", err)
	}
	return client, nil
}
