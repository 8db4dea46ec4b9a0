// Package series names the per-time-step files produced when a 4D grid is
// split along its time axis.
package series

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Path returns the canonical path of time step index for base.
//
// The base path is cleaned and the index is inserted before the extension:
// "out/vol.ktx2" becomes "out/vol_t0003.ktx2" for index 3. A base without an
// extension gets the suffix appended. Path does not touch the file system.
func Path(base string, index int) string {
	clean := filepath.Clean(base)
	ext := filepath.Ext(clean)
	stem := strings.TrimSuffix(clean, ext)

	return fmt.Sprintf("%s_t%04d%s", stem, index, ext)
}
