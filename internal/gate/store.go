package gate

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// lightweight per-user credential store (file, 0600) with AES-GCM
// obfuscation. Not a replacement for OS keychains but avoids plain-text
// material on disk.

const fileName = "gate.json"

type credentialFile struct {
	Secret string `json:"secret"` // base64(ciphertext)
}

// Store persists the gate's credential material under dir.
type Store struct {
	dir string
}

// NewStore returns a store rooted at the user config dir.
func NewStore() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(filepath.Join(dir, "pocketledger")), nil
}

// NewStoreAt returns a store rooted at an explicit directory.
func NewStoreAt(dir string) *Store {
	return &Store{dir: dir}
}

// Provision generates and stores fresh credential material. Called when the
// biometric gate setting is toggled on.
func (s *Store) Provision() error {
	secret := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return err
	}
	ct, err := encrypt(secret)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil { // restrict directory
		return err
	}
	data, err := json.MarshalIndent(credentialFile{
		Secret: base64.StdEncoding.EncodeToString(ct),
	}, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, fileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Provisioned reports whether usable credential material exists.
func (s *Store) Provisioned() bool {
	data, err := os.ReadFile(filepath.Join(s.dir, fileName))
	if err != nil {
		return false
	}
	var cf credentialFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(cf.Secret)
	if err != nil {
		return false
	}
	_, err = decrypt(raw)
	return err == nil
}

// Reset removes the credential material. Best effort: a missing file is not
// an error, and callers never depend on the outcome.
func (s *Store) Reset() {
	_ = os.Remove(filepath.Join(s.dir, fileName))
}

func masterKey() []byte {
	user := os.Getenv("USER")
	base := fmt.Sprintf("pocketledger-%s-%s", runtime.GOOS, user)
	hash := sha256.Sum256([]byte(base))
	return hash[:]
}

func encrypt(plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(masterKey())
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(masterKey())
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := ciphertext[:gcm.NonceSize()]
	body := ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
