//go:build oracle

package sqldb

// godror needs the Oracle client libraries at build and run time.
import _ "github.com/godror/godror"
