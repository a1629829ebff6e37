package client

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// identity is the caller: a client id plus an optional Ed25519 private
// key used to sign request messages.
type identity struct {
	clientID string
	key      ed25519.PrivateKey
}

func loadIdentity(cmd *cobra.Command) (identity, error) {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		user = os.Getenv("CANVASS_USER_ID")
	}
	keyFile, _ := cmd.Flags().GetString("key-file")
	if keyFile == "" {
		keyFile = os.Getenv("CANVASS_KEY_FILE")
	}
	ident := identity{clientID: user}
	if keyFile == "" {
		return ident, nil
	}
	key, err := loadPrivateKey(keyFile)
	if err != nil {
		return identity{}, fmt.Errorf("key file %s: %w", keyFile, err)
	}
	ident.key = key
	return ident, nil
}

// loadPrivateKey reads an Ed25519 private key, either OpenSSH PEM or raw
// base64 seed/key material.
func loadPrivateKey(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if parsed, err := ssh.ParseRawPrivateKey(raw); err == nil {
		if key, ok := parsed.(*ed25519.PrivateKey); ok {
			return *key, nil
		}
		return nil, fmt.Errorf("not an ed25519 key")
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("neither OpenSSH nor base64 key material")
	}
	switch len(b) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(b), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(b), nil
	}
	return nil, fmt.Errorf("unexpected key length %d", len(b))
}

// publicKeyString renders the key's public half as an OpenSSH
// authorized-key line, the format the server stores.
func publicKeyString(key ed25519.PrivateKey) (string, error) {
	pub, err := ssh.NewPublicKey(key.Public().(ed25519.PublicKey))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub))), nil
}

// sign returns the base64 signature over message, or "" without a key.
func (i identity) sign(message []byte) string {
	if i.key == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(ed25519.Sign(i.key, message))
}

// request performs an API call carrying the identity headers. message is
// the byte string the signature covers for this endpoint.
func request(ctx context.Context, base, method, path string, ident identity, message []byte, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if ident.clientID != "" {
		req.Header.Set("X-User-ID", ident.clientID)
	}
	if sig := ident.sign(message); sig != "" {
		req.Header.Set("X-Signature", sig)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, b, nil
}

func printJSON(w io.Writer, raw []byte) {
	var v any
	if json.Unmarshal(raw, &v) == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	fmt.Fprintln(w, string(raw))
}

// parseDue accepts an RFC3339 timestamp or a duration offset from now
// (e.g. "72h").
func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(d), nil
	}
	return time.Time{}, fmt.Errorf("invalid due date %q; want RFC3339 or a duration like 72h", s)
}

func addIdentityFlags(cmd *cobra.Command) {
	cmd.Flags().String("user", "", "Client id (default $CANVASS_USER_ID)")
	cmd.Flags().String("key-file", "", "Ed25519 private key file (default $CANVASS_KEY_FILE)")
}
