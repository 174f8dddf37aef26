package store

import (
	"testing"

	"video-rag-chat-be/pkg/rag/failure"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  MemoryRecord
		wantErr bool
	}{
		{name: "user turn", record: MemoryRecord{Text: "hi", Metadata: Metadata{Role: RoleUser}}},
		{name: "summary with source", record: NewSummaryRecord("a summary", "https://youtu.be/abc")},
		{name: "blank text", record: MemoryRecord{Text: "  \n", Metadata: Metadata{Role: RoleUser}}, wantErr: true},
		{name: "missing role", record: MemoryRecord{Text: "hi"}, wantErr: true},
		{name: "system role", record: MemoryRecord{Text: "hi", Metadata: Metadata{Role: RoleSystem}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, failure.ErrMalformedMessage)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewTurnRecords(t *testing.T) {
	records := NewTurnRecords("what?", "that.")

	assert.Equal(t, []MemoryRecord{
		{Text: "what?", Metadata: Metadata{Role: RoleUser}},
		{Text: "that.", Metadata: Metadata{Role: RoleAssistant}},
	}, records)
}

func TestSessionRecent(t *testing.T) {
	s := NewSession("s1")
	s.Append(Turn{Role: RoleUser, Text: "1"}, Turn{Role: RoleAssistant, Text: "2"})
	s.Append(Turn{Role: RoleUser, Text: "3"})

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []Turn{{Role: RoleAssistant, Text: "2"}, {Role: RoleUser, Text: "3"}}, s.Recent(2))
	assert.Len(t, s.Recent(0), 3)
	assert.Len(t, s.Recent(10), 3)

	turns := s.Turns()
	turns[0].Text = "mutated"
	assert.Equal(t, "1", s.Turns()[0].Text)
}
