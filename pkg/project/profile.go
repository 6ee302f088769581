package project

// Profile is a named build configuration controlling optimization and signing
// policy. Anything other than [ProfileDev] and [ProfileRelease] is a custom
// profile.
type Profile string

const (
	ProfileDev     Profile = "dev"
	ProfileRelease Profile = "release"
)

// ParseProfile maps a profile flag value to a [Profile]. An empty value means
// the development profile.
func ParseProfile(s string) Profile {
	if s == "" {
		return ProfileDev
	}

	return Profile(s)
}

// Name returns the profile name as used in configuration keys and output
// directory layout.
func (p Profile) Name() string {
	return string(p)
}

// IsDev reports whether this is the development profile, the only profile
// eligible for the auto-generated debug keystore.
func (p Profile) IsDev() bool {
	return p == ProfileDev
}
