// Package snapshot copies unmounted disk images to and from an object store.
// Every image is stored next to a `.b2sum` object holding its BLAKE2b-256
// digest, which is checked when the image is pulled.
package snapshot

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/weberc2/fatfs/pkg/objectstore"
	"github.com/weberc2/fatfs/pkg/types"
	"golang.org/x/crypto/blake2b"
)

const (
	DigestMismatchErr types.ConstError = "snapshot digest mismatch"
	BadDigestErr      types.ConstError = "malformed snapshot digest"

	digestSuffix = ".b2sum"
)

type Digest [blake2b.Size256]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil || len(b) != len(d) {
		return d, fmt.Errorf("parsing digest `%s`: %w", s, BadDigestErr)
	}
	copy(d[:], b)
	return d, nil
}

// NewKey returns a fresh key for a snapshot of `disk` under `prefix`.
func NewKey(prefix, disk string) string {
	return NewKeyPrefix(prefix, disk) + uuid.NewString() + ".img"
}

// NewKeyPrefix returns the prefix shared by every snapshot of `disk`.
func NewKeyPrefix(prefix, disk string) string {
	return path.Join(prefix, path.Base(disk)) + "/"
}

// Push uploads `image` to `key` along with its digest.
func Push(
	store objectstore.ObjectStore,
	bucket string,
	key string,
	image io.ReadSeeker,
) (Digest, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return Digest{}, fmt.Errorf("pushing snapshot `%s`: %w", key, err)
	}
	if _, err := io.Copy(h, image); err != nil {
		return Digest{}, fmt.Errorf("pushing snapshot `%s`: hashing: %w", key, err)
	}
	var digest Digest
	h.Sum(digest[:0])

	if _, err := image.Seek(0, io.SeekStart); err != nil {
		return digest, fmt.Errorf("pushing snapshot `%s`: rewinding: %w", key, err)
	}
	if err := store.PutObject(bucket, key, image); err != nil {
		return digest, fmt.Errorf("pushing snapshot `%s`: %w", key, err)
	}
	if err := store.PutObject(
		bucket,
		key+digestSuffix,
		strings.NewReader(digest.String()+"\n"),
	); err != nil {
		return digest, fmt.Errorf("pushing snapshot `%s`: digest: %w", key, err)
	}
	return digest, nil
}

// Pull downloads the snapshot at `key` and writes it to `w`. Nothing is
// written unless the image matches its stored digest.
func Pull(
	store objectstore.ObjectStore,
	bucket string,
	key string,
	w io.Writer,
) (Digest, error) {
	wanted, err := getDigest(store, bucket, key)
	if err != nil {
		return Digest{}, fmt.Errorf("pulling snapshot `%s`: %w", key, err)
	}

	body, err := store.GetObject(bucket, key)
	if err != nil {
		return Digest{}, fmt.Errorf("pulling snapshot `%s`: %w", key, err)
	}
	defer body.Close()

	var image bytes.Buffer
	if _, err := io.Copy(&image, body); err != nil {
		return Digest{}, fmt.Errorf("pulling snapshot `%s`: %w", key, err)
	}
	found := Digest(blake2b.Sum256(image.Bytes()))
	if found != wanted {
		return found, fmt.Errorf(
			"pulling snapshot `%s`: wanted digest `%s`; found `%s`: %w",
			key,
			wanted,
			found,
			DigestMismatchErr,
		)
	}

	if _, err := image.WriteTo(w); err != nil {
		return found, fmt.Errorf("pulling snapshot `%s`: writing: %w", key, err)
	}
	return found, nil
}

func getDigest(
	store objectstore.ObjectStore,
	bucket string,
	key string,
) (Digest, error) {
	body, err := store.GetObject(bucket, key+digestSuffix)
	if err != nil {
		return Digest{}, fmt.Errorf("getting digest: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return Digest{}, fmt.Errorf("getting digest: %w", err)
	}
	return ParseDigest(string(data))
}

// List returns the snapshot keys under `prefix` in lexical order.
func List(
	store objectstore.ObjectStore,
	bucket string,
	prefix string,
) ([]string, error) {
	keys, err := store.ListObjects(bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	snapshots := make([]string, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, digestSuffix) {
			snapshots = append(snapshots, key)
		}
	}
	sort.Strings(snapshots)
	return snapshots, nil
}
