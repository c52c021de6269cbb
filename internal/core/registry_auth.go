package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/EmundoT/pkgguard/internal/types"
)

// AccountResolver returns the AWS account ID of the active credentials.
//
//go:generate mockgen -source=registry_auth.go -destination=registry_auth_mock_test.go -package=core
type AccountResolver interface {
	AccountID(ctx context.Context, region string) (string, error)
}

// RegistryAuthenticator logs the package manager into the private registry
// of a repository. It returns a one-line detail for the migration trace.
type RegistryAuthenticator interface {
	Login(ctx context.Context, dir string, registry types.RegistryConfig) (string, error)
}

// Compile-time interface satisfaction checks.
var (
	_ AccountResolver       = (*STSAccountResolver)(nil)
	_ RegistryAuthenticator = (*CodeArtifactAuthenticator)(nil)
)

// STSAccountResolver resolves the account through sts:GetCallerIdentity.
type STSAccountResolver struct {
	optFns []func(*config.LoadOptions) error
}

// NewSTSAccountResolver creates a resolver using the default credential chain.
// optFns are applied after the region option.
func NewSTSAccountResolver(optFns ...func(*config.LoadOptions) error) *STSAccountResolver {
	return &STSAccountResolver{optFns: optFns}
}

// AccountID loads the default AWS config and asks STS who the caller is.
func (r *STSAccountResolver) AccountID(ctx context.Context, region string) (string, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	opts = append(opts, r.optFns...)

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("load AWS config: %w", err)
	}
	result, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	account := aws.ToString(result.Account)
	if account == "" {
		return "", fmt.Errorf("get caller identity: empty account")
	}
	return account, nil
}

// CodeArtifactAuthenticator runs `aws codeartifact login --tool npm`, which
// writes the registry URL and token to the user's .npmrc for pnpm to read.
type CodeArtifactAuthenticator struct {
	accounts AccountResolver
	runner   ToolRunner
}

// NewCodeArtifactAuthenticator creates a CodeArtifactAuthenticator.
func NewCodeArtifactAuthenticator(accounts AccountResolver, runner ToolRunner) *CodeArtifactAuthenticator {
	return &CodeArtifactAuthenticator{accounts: accounts, runner: runner}
}

// Login resolves the domain owner when unset and performs the login.
// Both collaborator failures are returned as *CollaboratorFailure.
func (a *CodeArtifactAuthenticator) Login(ctx context.Context, dir string, registry types.RegistryConfig) (string, error) {
	owner := registry.DomainOwner
	if owner == "" {
		account, err := a.accounts.AccountID(ctx, registry.Region)
		if err != nil {
			return "", NewCollaboratorFailure("aws sts", -1, "", err)
		}
		owner = account
	}

	args := []string{
		"codeartifact", "login",
		"--tool", "npm",
		"--domain", registry.Domain,
		"--domain-owner", owner,
		"--repository", registry.Repository,
	}
	if registry.Region != "" {
		args = append(args, "--region", registry.Region)
	}
	if _, err := a.runner.Run(ctx, dir, nil, "aws", args...); err != nil {
		return "", err
	}
	return fmt.Sprintf("logged in to %s/%s (owner %s)", registry.Domain, registry.Repository, owner), nil
}

// RegistryConfigured reports whether a registry login is configured.
func RegistryConfigured(registry *types.RegistryConfig) bool {
	return registry != nil && registry.Domain != "" && registry.Repository != ""
}
