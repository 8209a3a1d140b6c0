package guard

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vedran77/concorde/internal/domain"
)

func TestIsServerOwner(t *testing.T) {
	owner, other := uuid.New(), uuid.New()
	server := &domain.Server{OwnerID: owner, Members: []uuid.UUID{owner, other}}

	tests := []struct {
		name   string
		server *domain.Server
		actor  domain.Actor
		want   bool
	}{
		{"owner", server, domain.NewActor(owner), true},
		{"member is not owner", server, domain.NewActor(other), false},
		{"stranger", server, domain.NewActor(uuid.New()), false},
		{"nil server", nil, domain.NewActor(owner), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsServerOwner(tt.server, tt.actor))
		})
	}
}

func TestIsChannelOwner(t *testing.T) {
	owner := uuid.New()
	channel := &domain.Channel{OwnerID: owner, ServerID: uuid.New()}

	tests := []struct {
		name    string
		channel *domain.Channel
		actor   domain.Actor
		want    bool
	}{
		{"owner", channel, domain.NewActor(owner), true},
		{"other", channel, domain.NewActor(uuid.New()), false},
		{"nil channel", nil, domain.NewActor(owner), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsChannelOwner(tt.channel, tt.actor))
		})
	}
}

func TestIsSelf(t *testing.T) {
	id := uuid.New()

	assert.True(t, IsSelf(id, domain.NewActor(id)))
	assert.False(t, IsSelf(uuid.New(), domain.NewActor(id)))
	assert.False(t, IsSelf(uuid.Nil, domain.NewActor(id)))
}
