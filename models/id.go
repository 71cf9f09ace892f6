package models

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

const idLength = 24

// NewID returns a 24 character hex identifier: four bytes of unix seconds
// followed by eight random bytes.
func NewID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:4], uint32(time.Now().Unix()))
	r := uuid.New()
	copy(b[4:], r[:8])
	return hex.EncodeToString(b[:])
}

func IsValidID(id string) bool {
	if len(id) != idLength {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
