package pkp_test

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/delegate/pkg/cryptox"
	"github.com/aussiebroadwan/delegate/pkg/pkp"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestLocalFromPEM(t *testing.T) {
	for _, gen := range []struct {
		name string
		alg  string
		fn   func() ([]byte, error)
	}{
		{"ed25519", "EdDSA", cryptox.GenerateEd25519Key},
		{"p256", "ES256", cryptox.GenerateES256Key},
	} {
		t.Run(gen.name, func(t *testing.T) {
			pemKey, err := gen.fn()
			require.NoError(t, err)

			signer, err := pkp.NewLocal(pemKey)
			require.NoError(t, err)
			require.Equal(t, gen.alg, signer.Alg())

			msg := []byte("header.claims")
			sig, err := signer.Sign(context.Background(), msg)
			require.NoError(t, err)

			method := jwt.GetSigningMethod(gen.alg)
			require.NoError(t, method.Verify(string(msg), sig, signer.PublicKey()))
		})
	}
}

func TestLocalFromMnemonicIsDeterministic(t *testing.T) {
	a, err := pkp.NewLocalFromMnemonic(testMnemonic)
	require.NoError(t, err)
	b, err := pkp.NewLocalFromMnemonic("  " + testMnemonic + "\n")
	require.NoError(t, err)

	require.Equal(t, a.PublicKey(), b.PublicKey())
	require.Equal(t, "EdDSA", a.Alg())

	_, err = pkp.NewLocalFromMnemonic("not a real mnemonic")
	require.ErrorIs(t, err, pkp.ErrInvalidMnemonic)
}

func TestNewMnemonic(t *testing.T) {
	m, err := pkp.NewMnemonic()
	require.NoError(t, err)
	_, err = pkp.NewLocalFromMnemonic(m)
	require.NoError(t, err)
}

func TestLocalSignHonoursContext(t *testing.T) {
	signer, err := pkp.NewLocalFromMnemonic(testMnemonic)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = signer.Sign(ctx, []byte("x"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestAddressOf(t *testing.T) {
	signer, err := pkp.NewLocalFromMnemonic(testMnemonic)
	require.NoError(t, err)

	addr, err := pkp.Identity(signer)
	require.NoError(t, err)
	require.Regexp(t, `^0x[0-9a-f]{40}$`, addr)

	again, err := pkp.AddressOf(signer.PublicKey())
	require.NoError(t, err)
	require.Equal(t, addr, again)
}

// fakeService serves the remote signing protocol with a local key.
func fakeService(t *testing.T, local *pkp.Local) *httptest.Server {
	t.Helper()
	pubPEM, err := cryptox.EncodePublicKeyPEM(local.PublicKey())
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/keys/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "agent-1" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(pkp.ErrorResponse{Error: "not_found"})
			return
		}
		_ = json.NewEncoder(w).Encode(pkp.KeyResponse{KeyID: "agent-1", Alg: local.Alg(), PublicKey: pubPEM})
	})
	mux.HandleFunc("POST /v1/keys/{id}/sign", func(w http.ResponseWriter, r *http.Request) {
		var req pkp.SignRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		msg, err := base64.RawURLEncoding.DecodeString(req.Message)
		require.NoError(t, err)
		sig, err := local.Sign(r.Context(), msg)
		require.NoError(t, err)
		_ = json.NewEncoder(w).Encode(pkp.SignResponse{Signature: base64.RawURLEncoding.EncodeToString(sig)})
	})
	return httptest.NewServer(mux)
}

func TestRemoteSigner(t *testing.T) {
	local, err := pkp.NewLocalFromMnemonic(testMnemonic)
	require.NoError(t, err)
	srv := fakeService(t, local)
	defer srv.Close()

	ctx := context.Background()
	remote, err := pkp.NewRemote(ctx, srv.URL+"/", "agent-1")
	require.NoError(t, err)
	require.Equal(t, "EdDSA", remote.Alg())
	require.Equal(t, local.PublicKey(), remote.PublicKey())

	sig, err := remote.Sign(ctx, []byte("payload"))
	require.NoError(t, err)
	require.True(t, ed25519.Verify(local.PublicKey().(ed25519.PublicKey), []byte("payload"), sig))
}

func TestRemoteSignerUnknownKey(t *testing.T) {
	local, err := pkp.NewLocalFromMnemonic(testMnemonic)
	require.NoError(t, err)
	srv := fakeService(t, local)
	defer srv.Close()

	_, err = pkp.NewRemote(context.Background(), srv.URL, "missing")
	require.ErrorIs(t, err, pkp.ErrRemote)
}
