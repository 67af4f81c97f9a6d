//go:build db2

package sqldb

// go_ibm_db links against the IBM CLI driver.
import _ "github.com/ibmdb/go_ibm_db"
