package plugin

import (
	"fmt"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
)

// MaxNameLength bounds plugin class and logical names.
const MaxNameLength = 128

// ValidateName validates plugin class and logical names. Names are limited
// to alphanumerics, dash, underscore and dot so they remain safe as map
// keys, file name fragments and settings entries.
func ValidateName(name string) error {
	if name == "" {
		return errors.WrapConfig(
			fmt.Errorf("empty name: %w", errors.ErrInvalidConfig),
			"Validation", "ValidateName", "empty name check")
	}
	if len(name) > MaxNameLength {
		return errors.WrapConfig(
			fmt.Errorf("name longer than %d characters: %w", MaxNameLength, errors.ErrInvalidConfig),
			"Validation", "ValidateName", "name length check")
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.') {
			return errors.WrapConfig(
				fmt.Errorf("name %q contains invalid character %q: %w", name, r, errors.ErrInvalidConfig),
				"Validation", "ValidateName", "character check")
		}
	}
	return nil
}
