/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength   = 6

	participantIDLength = 8
	maxCodeAttempts     = 64
)

func newRoomID() string {
	return uuid.NewString()
}

func newParticipantID() ParticipantID {
	return ParticipantID(strings.ReplaceAll(uuid.NewString(), "-", "")[:participantIDLength])
}

// newJoinCode draws CodeLength characters from an alphabet without the
// easily confused 0/O and 1/I.
func newJoinCode() (string, error) {
	var b strings.Builder
	b.Grow(CodeLength)

	limit := big.NewInt(int64(len(codeAlphabet)))
	for range CodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}

	return b.String(), nil
}

// NormalizeCode canonicalizes a user-supplied join code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
