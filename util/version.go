package util

import "regexp"

var reVersion = regexp.MustCompile(`^v\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?$`)

var InvalidVersionError = NewError("invalid version")

type Version string

func (vs Version) String() string {
	return string(vs)
}

func (vs Version) IsValid([]byte) error {
	if !reVersion.MatchString(string(vs)) {
		return InvalidVersionError.Errorf("%q", vs)
	}

	return nil
}
