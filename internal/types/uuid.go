package types

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	UUID_PREFIX_CLIENT         = "cli"
	UUID_PREFIX_PROCEDURE      = "proc"
	UUID_PREFIX_PROCEDURE_TYPE = "ptype"
	UUID_PREFIX_HISTORY        = "hist"
	UUID_PREFIX_DOCUMENT       = "doc"
	UUID_PREFIX_AUDIT_LOG      = "audit"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier with a prefix, e.g. proc_01HXYZ...
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, strings.ToLower(GenerateUUID()))
}
