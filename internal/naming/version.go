package naming

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

var versionPattern = regexp.MustCompile(`^v(\d+)\.(\d+)(?:\.(\d+))?$`)

// ParseVersion parses tokens such as v1.0 or v1.0.3.
func ParseVersion(token string) (model.Version, error) {
	m := versionPattern.FindStringSubmatch(token)
	if m == nil {
		return model.Version{}, fmt.Errorf("invalid version token %q", token)
	}

	var v model.Version
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
		v.Semantic = true
	}
	return v, nil
}

// ParseVersionFormat parses token and checks it is written in format.
func ParseVersionFormat(token string, format model.VersionFormat) (model.Version, error) {
	v, err := ParseVersion(token)
	if err != nil {
		return v, err
	}
	if v.Format() != format {
		return v, fmt.Errorf("%w: %s is not a %s version", common.ErrVersionFormatMismatch, token, format)
	}
	return v, nil
}

// ParseFormat validates a configured version format name.
func ParseFormat(name string) (model.VersionFormat, error) {
	switch model.VersionFormat(name) {
	case model.VersionSimple, model.VersionSemantic:
		return model.VersionFormat(name), nil
	default:
		return "", fmt.Errorf("%w: unknown version format %q", common.ErrInvalidConfig, name)
	}
}

// Next returns the version following v. Simple versions bump the minor
// component and roll over to the next major once the minor reaches
// minorCeiling (zero means no ceiling). Semantic versions bump the patch.
func Next(v model.Version, format model.VersionFormat, minorCeiling int) (model.Version, error) {
	if v.Format() != format {
		return v, fmt.Errorf("%w: cannot increment %s as %s", common.ErrVersionFormatMismatch, v, format)
	}

	switch format {
	case model.VersionSemantic:
		v.Patch++
	default:
		v.Minor++
		if minorCeiling > 0 && v.Minor >= minorCeiling {
			v.Major++
			v.Minor = 0
		}
	}
	return v, nil
}
