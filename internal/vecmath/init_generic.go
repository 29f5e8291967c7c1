//go:build !amd64 && !arm64

package vecmath

// This file imports generic implementation packages for unsupported architectures.

import (
	// Import registry package
	_ "github.com/reftone/refmaster/internal/vecmath/registry"

	// Generic implementations (pure Go fallback)
	_ "github.com/reftone/refmaster/internal/vecmath/arch/generic"
)
