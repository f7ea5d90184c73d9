package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/gogotex/widgets/pkg/middleware"
)

// Verifier checks bearer tokens against an OIDC issuer.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the issuer and builds a verifier for clientID. An
// empty clientID skips the audience check.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	cfg := &oidc.Config{ClientID: clientID, SkipClientIDCheck: clientID == ""}
	return &Verifier{verifier: provider.Verifier(cfg)}, nil
}

// Verify implements middleware.Verifier.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

var _ middleware.Verifier = (*Verifier)(nil)
