package formula

import "errors"

var (
	// ErrMissingName is returned when a declaration has no package name.
	ErrMissingName = errors.New("package name is required")

	// ErrInvalidVersion is returned when the release version is not a semantic version.
	ErrInvalidVersion = errors.New("invalid package version")

	// ErrInvalidOptionName is returned when an option name cannot be used as a --with- flag.
	ErrInvalidOptionName = errors.New("option name can only contain lowercase letters, digits, '-', '_' and '+'")

	// ErrDuplicateOption is returned when two options share a name.
	ErrDuplicateOption = errors.New("duplicate option")

	// ErrMissingDependencyName is returned when a dependency has no name.
	ErrMissingDependencyName = errors.New("dependency name is required")

	// ErrUnknownKind is returned for a dependency kind other than required, build or optional.
	ErrUnknownKind = errors.New("unknown dependency kind, expected 'required', 'build' or 'optional'")

	// ErrUndeclaredOption is returned when a dependency is gated on an option the package does not declare.
	ErrUndeclaredOption = errors.New("dependency references an undeclared option")

	// ErrInvalidPatch is returned when a patch lacks its target file or the text to remove.
	ErrInvalidPatch = errors.New("patch requires 'file' and 'remove'")

	// ErrUnknownPredicate is returned when a platform condition names no known predicate.
	ErrUnknownPredicate = errors.New("unknown platform predicate")

	// ErrUnknownPreset is returned for an environment preset cellar does not provide.
	ErrUnknownPreset = errors.New("unknown environment preset")
)
