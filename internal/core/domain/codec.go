package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Account encoding: an 8-byte discriminator followed by the fields in
// declaration order, little-endian, strings and vectors prefixed with a u32
// length. Trailing bytes past the encoded value are reserved padding.

var registryDiscriminator = accountDiscriminator("AssetRegistry")

// minRecordSize is the encoded size of a record with empty strings
const minRecordSize = 4*4 + 8 + PublicKeySize + 8 + 1

func accountDiscriminator(name string) [DiscriminatorSize]byte {
	var d [DiscriminatorSize]byte
	sum := sha256.Sum256([]byte("account:" + name))
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// EncodedSize returns the encoded size of the record
func (a AssetRecord) EncodedSize() int {
	return 4 + len(a.ContentID) +
		4 + len(a.Name) +
		4 + len(a.Description) +
		4 + len(a.FileType) +
		8 + PublicKeySize + 8 + 1
}

// EncodedSize returns the encoded size of the registry, discriminator included
func (r *Registry) EncodedSize() int {
	size := DiscriminatorSize + PublicKeySize + 4
	for _, a := range r.Assets {
		size += a.EncodedSize()
	}
	return size + 4 + 1
}

// EncodeRegistry serializes r without padding
func EncodeRegistry(r *Registry) []byte {
	buf := make([]byte, 0, r.EncodedSize())
	buf = append(buf, registryDiscriminator[:]...)
	buf = append(buf, r.Owner[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(r.Assets)))
	for _, a := range r.Assets {
		buf = appendString(buf, a.ContentID)
		buf = appendString(buf, a.Name)
		buf = appendString(buf, a.Description)
		buf = appendString(buf, a.FileType)
		buf = binary.LittleEndian.AppendUint64(buf, a.FileSize)
		buf = append(buf, a.Owner[:]...)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(a.Timestamp))
		buf = append(buf, a.Bump)
	}
	buf = binary.LittleEndian.AppendUint32(buf, r.AssetCount)
	buf = append(buf, r.Bump)
	return buf
}

// EncodeRegistryAccount serializes r into a zero-padded buffer of exactly
// space bytes
func EncodeRegistryAccount(r *Registry, space int) ([]byte, error) {
	if r.EncodedSize() > space {
		return nil, fmt.Errorf("%w: need %d bytes, account has %d", ErrStorageExhausted, r.EncodedSize(), space)
	}
	data := make([]byte, space)
	copy(data, EncodeRegistry(r))
	return data, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// DecodeRegistry parses account data produced by EncodeRegistry or
// EncodeRegistryAccount
func DecodeRegistry(data []byte) (*Registry, error) {
	d := &decoder{data: data}

	disc := d.take(DiscriminatorSize)
	if d.err == nil && !bytes.Equal(disc, registryDiscriminator[:]) {
		return nil, fmt.Errorf("%w: discriminator mismatch", ErrInvalidAccount)
	}

	r := &Registry{}
	r.Owner = d.publicKey()
	n := d.u32()
	if d.err == nil && int(n) > len(data)/minRecordSize {
		return nil, fmt.Errorf("%w: implausible record count %d", ErrInvalidAccount, n)
	}
	r.Assets = make([]AssetRecord, 0, n)
	for i := uint32(0); i < n && d.err == nil; i++ {
		var a AssetRecord
		a.ContentID = d.str()
		a.Name = d.str()
		a.Description = d.str()
		a.FileType = d.str()
		a.FileSize = d.u64()
		a.Owner = d.publicKey()
		a.Timestamp = int64(d.u64())
		a.Bump = d.u8()
		r.Assets = append(r.Assets, a)
	}
	r.AssetCount = d.u32()
	r.Bump = d.u8()

	if d.err != nil {
		return nil, d.err
	}
	return r, nil
}

type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.data) {
		d.err = fmt.Errorf("%w: unexpected end of data at offset %d", ErrInvalidAccount, d.off)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) u64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) str() string {
	n := d.u32()
	return string(d.take(int(n)))
}

func (d *decoder) publicKey() PublicKey {
	var pk PublicKey
	copy(pk[:], d.take(PublicKeySize))
	return pk
}
