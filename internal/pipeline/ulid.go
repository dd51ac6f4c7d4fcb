package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job IDs are ULID-shaped: 48 bits of millisecond time, a 16-bit sequence
// that increases within a millisecond, then 64 random bits, Crockford base32
// encoded to 26 characters.

var (
	idMu    sync.Mutex
	lastMS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

func newJobID() string {
	return newJobIDAt(time.Now())
}

func newJobIDAt(t time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()

	ms := uint64(t.UnixMilli())
	if ms == lastMS {
		lastSeq++
	} else {
		lastMS = ms
		lastSeq = 0
	}

	var random [8]byte
	rand.Read(random[:])
	return encodeULID(jobIDBytes(ms, lastSeq, random))
}

func jobIDBytes(ms uint64, seq uint16, random [8]byte) [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], ms<<16|uint64(seq))
	copy(b[8:], random[:])
	return b
}

// encodeULID writes the 128 bits as 26 five-bit groups, most significant
// first. The first group carries only the top 3 bits.
func encodeULID(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[0:8])
	lo := binary.BigEndian.Uint64(b[8:16])

	var out [26]byte
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
