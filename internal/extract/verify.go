package extract

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/ZebulonRouseFrantzich/nativeload/internal/archive"
)

// VerificationMethod indicates how an extracted file was verified.
type VerificationMethod int

const (
	// VerificationNone indicates no check was configured.
	VerificationNone VerificationMethod = iota
	// VerificationGPG indicates a detached OpenPGP signature was checked.
	VerificationGPG
	// VerificationSHA256 indicates a SHA256 checksum was compared.
	VerificationSHA256
)

// String returns the string representation of the verification method.
func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// VerificationResult records the checks applied to one file.
type VerificationResult struct {
	Methods []VerificationMethod
}

// String returns a human-readable summary.
func (r *VerificationResult) String() string {
	if r == nil || len(r.Methods) == 0 {
		return "unverified"
	}
	names := make([]string, len(r.Methods))
	for i, m := range r.Methods {
		names[i] = m.String()
	}
	return "verified (" + strings.Join(names, ", ") + ")"
}

// Verifier checks extracted libraries before they are moved into place.
//
// With a keyring, the archive must carry a detached signature next to the
// entry, named <entry>.sig or <entry>.asc. With checksums, an entry listed
// by base name must match its SHA256 digest; unlisted entries pass.
type Verifier struct {
	keyring   openpgp.EntityList
	checksums map[string]string
}

// NewVerifier returns a verifier with no checks configured.
func NewVerifier() *Verifier {
	return &Verifier{checksums: map[string]string{}}
}

// WithKeyring requires a valid detached signature from keyring.
func (v *Verifier) WithKeyring(keyring openpgp.EntityList) *Verifier {
	v.keyring = keyring
	return v
}

// WithChecksums merges expected SHA256 digests keyed by file base name.
func (v *Verifier) WithChecksums(sums map[string]string) *Verifier {
	for name, sum := range sums {
		v.checksums[name] = strings.ToLower(sum)
	}
	return v
}

// Verify checks the file at filePath, which holds the bytes of entry.
func (v *Verifier) Verify(filePath, entry string, a archive.Reader) (*VerificationResult, error) {
	result := &VerificationResult{}

	if len(v.keyring) > 0 {
		if err := v.verifyGPG(filePath, entry, a); err != nil {
			return result, fmt.Errorf("%w: %s: %v", ErrVerificationFailed, entry, err)
		}
		result.Methods = append(result.Methods, VerificationGPG)
	}

	if expected, ok := v.checksums[path.Base(entry)]; ok {
		actual, err := calculateSHA256(filePath)
		if err != nil {
			return result, fmt.Errorf("calculate checksum: %w", err)
		}
		if !strings.EqualFold(actual, expected) {
			return result, fmt.Errorf("%w: %s: checksum mismatch:\nactual:   %s\nexpected: %s",
				ErrVerificationFailed, entry, actual, expected)
		}
		result.Methods = append(result.Methods, VerificationSHA256)
	}

	return result, nil
}

func (v *Verifier) verifyGPG(filePath, entry string, a archive.Reader) error {
	signature, err := readSignature(a, entry)
	if err != nil {
		return err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	// Verify signature (try armored first)
	_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, file, bytes.NewReader(signature), nil)
	if err != nil {
		file.Seek(0, io.SeekStart)
		_, err = openpgp.CheckDetachedSignature(v.keyring, file, bytes.NewReader(signature), nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}

	return nil
}

func readSignature(a archive.Reader, entry string) ([]byte, error) {
	for _, ext := range []string{".sig", ".asc"} {
		rc, err := a.Open(entry + ext)
		if errors.Is(err, archive.ErrEntryNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open signature: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read signature: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("signature for %s not found in archive", entry)
}

// LoadKeyring reads an armored or binary OpenPGP keyring.
func LoadKeyring(r io.ReadSeeker) (openpgp.EntityList, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(r)
	if err != nil {
		// Try reading as non-armored keyring
		r.Seek(0, io.SeekStart)
		keyring, err = openpgp.ReadKeyRing(r)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// LoadKeyringFile reads a keyring from disk.
func LoadKeyringFile(keyringPath string) (openpgp.EntityList, error) {
	f, err := os.Open(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer f.Close()
	return LoadKeyring(f)
}

// ParseChecksums reads "digest  filename" lines as produced by sha256sum.
// File names are reduced to their base name.
func ParseChecksums(r io.Reader) (map[string]string, error) {
	sums := map[string]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		name := strings.TrimPrefix(parts[1], "*")
		sums[path.Base(strings.ReplaceAll(name, "\\", "/"))] = strings.ToLower(parts[0])
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan checksum file: %w", err)
	}

	return sums, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
