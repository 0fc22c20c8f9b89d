package coordinator

import (
	"context"
	"fmt"
	"time"

	"JuliaRenderer/misc"
	"JuliaRenderer/task"
)

// Remote drives a coordinator from another process.
type Remote struct {
	client Client
}

func NewRemote(transport Transport, serverAddress string) *Remote {
	return &Remote{
		client: NewClient(transport, serverAddress, "CoordinatorClient"),
	}
}

func (r *Remote) Connect() error {
	return r.client.Connect()
}

func (r *Remote) Disconnect() error {
	return r.client.Disconnect()
}

func (r *Remote) Render(parameters task.Parameters, threads int) (RenderReply, error) {
	var reply RenderReply
	err := r.client.Call("Coordinator.Render", RenderRequest{Parameters: parameters, Threads: threads}, &reply)
	return reply, err
}

func (r *Remote) Undo(steps int) (RenderReply, error) {
	var reply RenderReply
	err := r.client.Call("Coordinator.Undo", steps, &reply)
	return reply, err
}

func (r *Remote) Redo(steps int) (RenderReply, error) {
	var reply RenderReply
	err := r.client.Call("Coordinator.Redo", steps, &reply)
	return reply, err
}

func (r *Remote) Status() (StatusReply, error) {
	var reply StatusReply
	err := r.client.Call("Coordinator.Status", misc.Nothing{}, &reply)
	return reply, err
}

func (r *Remote) Export(fingerprint uint64) ([]byte, error) {
	var reply ExportReply
	if err := r.client.Call("Coordinator.Export", fingerprint, &reply); err != nil {
		return nil, err
	}
	return reply.Image, nil
}

func (r *Remote) RollCall() (bool, error) {
	var present bool
	err := r.client.Call("Coordinator.RollCall", misc.Nothing{}, &present)
	return present, err
}

// WaitComplete polls until generation is fully painted. It fails if a newer render replaces it.
func (r *Remote) WaitComplete(ctx context.Context, generation uint64, poll time.Duration) (StatusReply, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		status, err := r.Status()
		if err != nil {
			return status, err
		}
		if status.Generation != generation {
			return status, fmt.Errorf("generation %d was replaced by %d", generation, status.Generation)
		}
		if status.Complete {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

// RemoteError reports whether err returned by a remote call carries target. Errors lose their identity on
// the wire so only the message can be compared.
func RemoteError(err error, target error) bool {
	return err != nil && err.Error() == target.Error()
}
