package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/delegate/pkg/cryptox"
	"github.com/aussiebroadwan/delegate/pkg/pkp"
)

// InitSigner builds the delegated signing capability.
//
// Modes:
//   - "local": an in-process key, read from SIGNER_KEY_FILE or derived from
//     SIGNER_MNEMONIC. With neither set an ephemeral Ed25519 key is
//     generated, and every credential issued before a restart stops
//     verifying.
//   - "remote": an external key service at SIGNER_URL holding SIGNER_KEY_ID.
func InitSigner(ctx context.Context, cfg Config, logger *slog.Logger) (pkp.Signer, error) {
	var (
		signer pkp.Signer
		err    error
	)

	switch cfg.SignerMode {
	case SignerModeRemote:
		signer, err = pkp.NewRemote(ctx, cfg.SignerURL, cfg.SignerKeyID)
		if err != nil {
			return nil, fmt.Errorf("failed to reach remote signer: %w", err)
		}
		logger.Info("using remote signer", "url", cfg.SignerURL, "key_id", cfg.SignerKeyID)

	default:
		switch {
		case cfg.SignerKeyFile != "":
			pemKey, rerr := os.ReadFile(cfg.SignerKeyFile)
			if rerr != nil {
				return nil, fmt.Errorf("failed to read signer key: %w", rerr)
			}
			signer, err = pkp.NewLocal(pemKey)
		case cfg.SignerMnemonic != "":
			signer, err = pkp.NewLocalFromMnemonic(cfg.SignerMnemonic)
		default:
			pemKey, gerr := cryptox.GenerateEd25519Key()
			if gerr != nil {
				return nil, fmt.Errorf("failed to generate ephemeral key: %w", gerr)
			}
			signer, err = pkp.NewLocal(pemKey)
			logger.Warn("no signer key configured, using an ephemeral key; credentials will not survive a restart")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load local signer: %w", err)
		}
	}

	identity, err := pkp.Identity(signer)
	if err != nil {
		return nil, err
	}
	logger.Info("signer ready", "alg", signer.Alg(), "identity", identity)
	return signer, nil
}
