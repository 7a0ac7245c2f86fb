package model

import (
	"fmt"
	"time"
)

// VersionFormat selects how version tokens are written and incremented.
type VersionFormat string

// Supported version formats.
const (
	VersionSimple   VersionFormat = "simple"
	VersionSemantic VersionFormat = "semantic"
)

// Version is a structured version token such as v1.2 or v1.2.3.
type Version struct {
	Major    int
	Minor    int
	Patch    int
	Semantic bool
}

// Format reports which format the token is written in.
func (v Version) Format() VersionFormat {
	if v.Semantic {
		return VersionSemantic
	}
	return VersionSimple
}

func (v Version) String() string {
	if v.Semantic {
		return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// Less reports whether v orders before other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// IdentityKey groups successive versions of the same document.
type IdentityKey struct {
	Subject string `json:"subject"`
	Folder  string `json:"folder"`
}

func (k IdentityKey) String() string {
	return k.Folder + "|" + k.Subject
}

// VersionRecord is one ledger entry.
type VersionRecord struct {
	RecordedAt time.Time   `json:"recorded_at"`
	Key        IdentityKey `json:"key"`
	Filename   string      `json:"filename"`
	Version    Version     `json:"version"`
}
