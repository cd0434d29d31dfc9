package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const agendaNamespace = "go-openagenda:agenda:"

// AgendaUUID identifies the agenda configuration attached to a host content
// item. Keys are case-insensitive; an empty key yields uuid.Nil.
func AgendaUUID(agendaKey string) uuid.UUID {
	key := strings.ToLower(strings.TrimSpace(agendaKey))
	if key == "" {
		return uuid.Nil
	}
	return derive(agendaNamespace + key)
}

// derive hashes name with go-hashid, falling back to a SHA1 name-based UUID
// when hashing fails.
func derive(name string) uuid.UUID {
	id, err := hashid.NewUUID(name, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || id == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
	}
	return id
}
