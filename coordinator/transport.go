package coordinator

import (
	"fmt"
	"strings"

	"github.com/BrugadaSyndrome/multirpc"
)

const (
	TCP Transport = iota
	HTTP
)

// Transport selects how RPC calls travel between client and coordinator.
type Transport int

func (t Transport) String() string {
	if t < TCP || t > HTTP {
		return "Unknown"
	}
	return []string{
		"tcp", "http",
	}[t]
}

func ParseTransport(name string) (Transport, error) {
	switch strings.ToLower(name) {
	case "tcp":
		return TCP, nil
	case "http":
		return HTTP, nil
	default:
		return TCP, fmt.Errorf("unknown transport %q, expected tcp or http", name)
	}
}

// Server serves an RPC object. Both multirpc servers satisfy it.
type Server interface {
	Name() string
	Run() error
	Stop() error
	Wait()
}

// Client calls an RPC server. Both multirpc clients satisfy it.
type Client interface {
	Call(method string, request interface{}, reply interface{}) error
	Connect() error
	Disconnect() error
	Name() string
}

func NewServer(transport Transport, object interface{}, address string, name string) Server {
	if transport == HTTP {
		server := multirpc.NewHttpServer(object, address, name)
		return &server
	}
	server := multirpc.NewTcpServer(object, address, name)
	return &server
}

func NewClient(transport Transport, serverAddress string, name string) Client {
	if transport == HTTP {
		client := multirpc.NewHttpClient(serverAddress, name)
		return &client
	}
	client := multirpc.NewTcpClient(serverAddress, name)
	return &client
}
