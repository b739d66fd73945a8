//go:build windows

package cluster

import "net"

// ListenTCP opens the listen socket. SO_REUSEPORT has no Windows
// equivalent, so cluster workers fall back to a plain listener.
func ListenTCP(addr string, _ bool) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
