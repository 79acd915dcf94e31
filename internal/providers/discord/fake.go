package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type SentMessage struct {
	Target  string
	Message Message
}

// FakeProvider keeps channels and messages in memory.
type FakeProvider struct {
	mu       sync.Mutex
	seq      int
	channels map[string]Channel
	created  []ChannelSpec
	messages []SentMessage
	dms      []SentMessage
	deleted  []string

	FailDirectMessages bool
	FailSends          bool
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{channels: map[string]Channel{}}
}

func (f *FakeProvider) FindChannelByName(ctx context.Context, guildID, name string) (*Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.channels {
		if strings.EqualFold(ch.Name, name) {
			found := ch
			return &found, nil
		}
	}
	return nil, nil
}

func (f *FakeProvider) CreateTicketChannel(ctx context.Context, spec ChannelSpec) (*Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ch := Channel{ID: fmt.Sprintf("C%d", f.seq), Name: spec.Name}
	f.channels[ch.ID] = ch
	f.created = append(f.created, spec)
	return &ch, nil
}

// AddChannel registers an existing channel.
func (f *FakeProvider) AddChannel(id, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[id] = Channel{ID: id, Name: name}
}

func (f *FakeProvider) SendMessage(ctx context.Context, channelID string, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSends {
		return ErrUnavailable
	}
	f.messages = append(f.messages, SentMessage{Target: channelID, Message: msg})
	return nil
}

func (f *FakeProvider) SendDirectMessage(ctx context.Context, userID string, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDirectMessages {
		return ErrUnavailable
	}
	f.dms = append(f.dms, SentMessage{Target: userID, Message: msg})
	return nil
}

func (f *FakeProvider) DeleteChannel(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.channels, channelID)
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *FakeProvider) Created() []ChannelSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ChannelSpec(nil), f.created...)
}

func (f *FakeProvider) Messages() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.messages...)
}

// MessagesTo returns messages posted into one channel.
func (f *FakeProvider) MessagesTo(channelID string) []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SentMessage
	for _, m := range f.messages {
		if m.Target == channelID {
			out = append(out, m)
		}
	}
	return out
}

func (f *FakeProvider) DirectMessages() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.dms...)
}

func (f *FakeProvider) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

var _ Provider = (*FakeProvider)(nil)
