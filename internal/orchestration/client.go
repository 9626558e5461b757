package orchestration

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
)

// Dial connects to the Temporal frontend. The client is heavyweight and is
// created once per process.
func Dial(hostPort string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: client.DefaultNamespace,
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal %s: %w", hostPort, err)
	}
	return c, nil
}

// Health adapts a Temporal client to a ping check.
type Health struct {
	C client.Client
}

func (h Health) Ping(ctx context.Context) error {
	_, err := h.C.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err
}
