package cli

import (
	"fmt"
	"net"

	"github.com/tmechsner/printd/internal/printd/device"
	"github.com/tmechsner/printd/internal/printd/server"

	"golang.org/x/net/netutil"
)

// maxClients caps the number of concurrently connected clients.
const maxClients = 64

func runServe(port int) int {
	devices := device.NewTTY(device.DefaultPathPattern, device.DefaultLatency)
	srv := server.New(devices)

	addr := fmt.Sprintf(":%d", port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Errorf("listen on %s; error: %v", addr, err)
		return ecFailure
	}
	defer lis.Close()

	logger.Infof("waiting for connections on %s", addr)
	if err := srv.Serve(netutil.LimitListener(lis, maxClients)); err != nil {
		logger.Errorf("serve on %s; error: %v", addr, err)
		return ecFailure
	}

	return ecSuccess
}
