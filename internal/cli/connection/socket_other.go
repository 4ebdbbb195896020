//go:build !unix

package connection

import "syscall"

func broadcastControl(string, string, syscall.RawConn) error {
	return nil
}
