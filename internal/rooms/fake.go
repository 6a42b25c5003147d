package rooms

import (
	"context"
	"sync"
)

// FakeProvider is an in-memory Provider for tests.
type FakeProvider struct {
	mu sync.Mutex

	// CreateErr, when set, is returned by CreateRoom.
	CreateErr error
	// EchoRoomID controls whether the fake echoes the requested room id.
	// When false the result carries an empty RoomID, exercising the local
	// identifier fallback in callers.
	EchoRoomID bool
	// Token and ServerURL seed the returned credentials.
	Token     string
	ServerURL string

	created []CreateRoomRequest
	deleted []string
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		EchoRoomID: true,
		Token:      "fake-token",
		ServerURL:  "wss://fake.media.local",
	}
}

func (f *FakeProvider) Name() string { return "fake" }

func (f *FakeProvider) HealthCheck(_ context.Context) error { return nil }

func (f *FakeProvider) CreateRoom(_ context.Context, req CreateRoomRequest) (CreateRoomResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		return CreateRoomResult{}, f.CreateErr
	}
	f.created = append(f.created, req)

	out := CreateRoomResult{Token: f.Token, ServerURL: f.ServerURL}
	if f.EchoRoomID {
		out.RoomID = req.RoomID
	}
	return out, nil
}

func (f *FakeProvider) DeleteRoom(_ context.Context, req DeleteRoomRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, req.RoomID)
	return nil
}

// Created returns a copy of the create requests seen so far.
func (f *FakeProvider) Created() []CreateRoomRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CreateRoomRequest, len(f.created))
	copy(out, f.created)
	return out
}

// Deleted returns the room ids torn down so far.
func (f *FakeProvider) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}

var _ Provider = (*FakeProvider)(nil)
