//go:build purego

package vecmath

import (
	// Generic implementations (pure Go fallback)
	_ "github.com/reftone/refmaster/internal/vecmath/arch/generic"
	// Import registry package
	_ "github.com/reftone/refmaster/internal/vecmath/registry"
)
