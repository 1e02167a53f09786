package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/store"
)

// BuildApplication turns decoded ledger records into the normalized view.
// It is a pure function: isEnabled follows the last version (false when
// there are none) and metadata is left empty.
func BuildApplication(app domain.AppRecord, versions []domain.VersionRecord) domain.Application {
	out := domain.Application{
		AppID:                  app.AppID,
		Name:                   app.Name,
		Description:            app.Description,
		Manager:                app.Manager,
		Delegatees:             slices.Clone(app.Delegatees),
		AuthorizedRedirectURIs: slices.Clone(app.RedirectURIs),
		CurrentVersion:         app.LatestVersion,
		Versions:               make([]domain.AppVersion, len(versions)),
	}
	if out.Delegatees == nil {
		out.Delegatees = []domain.Address{}
	}
	if out.AuthorizedRedirectURIs == nil {
		out.AuthorizedRedirectURIs = []string{}
	}

	for i, v := range versions {
		tools := v.Tools
		if tools == nil {
			tools = []domain.Tool{}
		}
		agents := v.DelegatedAgentPKPs
		if agents == nil {
			agents = []*big.Int{}
		}
		out.Versions[i] = domain.AppVersion{
			Version:            v.Version,
			Enabled:            v.Enabled,
			Tools:              tools,
			DelegatedAgentPKPs: agents,
		}
	}
	if n := len(versions); n > 0 {
		out.IsEnabled = versions[n-1].Enabled
	}
	return out
}

// Reader is the read side of the registry used to build views.
type Reader interface {
	GetAppsByManager(ctx context.Context, manager string) ([]domain.AppWithVersions, error)
	GetAppByID(ctx context.Context, appID uint64) (domain.AppRecord, error)
	GetAppVersion(ctx context.Context, appID, version uint64) (domain.AppRecord, domain.VersionRecord, error)
}

// MetadataSource supplies off-chain application metadata, which the ledger
// does not hold.
type MetadataSource interface {
	Metadata(ctx context.Context, appID uint64) (domain.Metadata, error)
}

// NoMetadata leaves every application's metadata empty.
type NoMetadata struct{}

func (NoMetadata) Metadata(context.Context, uint64) (domain.Metadata, error) {
	return domain.Metadata{}, nil
}

// StoreMetadata reads metadata recorded in the store. Applications without a
// row get empty metadata.
type StoreMetadata struct {
	Repo store.Metadata
}

func (s StoreMetadata) Metadata(ctx context.Context, appID uint64) (domain.Metadata, error) {
	m, err := s.Repo.GetMetadata(ctx, appID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Metadata{}, nil
	}
	return m, err
}

// Builder assembles Application views from the registry and joins metadata.
type Builder struct {
	Registry Reader
	Metadata MetadataSource
}

func (b *Builder) metadata() MetadataSource {
	if b.Metadata == nil {
		return NoMetadata{}
	}
	return b.Metadata
}

// BuildApplicationsForManager returns one view per application manager
// manages, in registry order. No applications is an empty slice.
func (b *Builder) BuildApplicationsForManager(ctx context.Context, manager string) ([]domain.Application, error) {
	raw, err := b.Registry.GetAppsByManager(ctx, manager)
	if err != nil {
		return nil, err
	}

	apps := make([]domain.Application, 0, len(raw))
	for _, r := range raw {
		app, err := b.withMetadata(ctx, BuildApplication(r.App, r.Versions))
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// BuildApplication loads one application and every version up to its latest.
func (b *Builder) BuildApplication(ctx context.Context, appID uint64) (domain.Application, error) {
	app, err := b.Registry.GetAppByID(ctx, appID)
	if err != nil {
		return domain.Application{}, err
	}

	versions := make([]domain.VersionRecord, 0, app.LatestVersion)
	for v := uint64(1); v <= app.LatestVersion; v++ {
		_, rec, err := b.Registry.GetAppVersion(ctx, appID, v)
		if err != nil {
			return domain.Application{}, err
		}
		versions = append(versions, rec)
	}
	return b.withMetadata(ctx, BuildApplication(app, versions))
}

func (b *Builder) withMetadata(ctx context.Context, app domain.Application) (domain.Application, error) {
	m, err := b.metadata().Metadata(ctx, app.AppID)
	if err != nil {
		return domain.Application{}, fmt.Errorf("metadata for app %d: %w", app.AppID, err)
	}
	app.Metadata = m
	return app, nil
}
