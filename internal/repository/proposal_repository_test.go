package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeenMessageEmptyID(t *testing.T) {
	repo := &ProposalRepository{}

	seen, err := repo.SeenMessage(context.Background(), "")
	assert.NoError(t, err)
	assert.False(t, seen)
}

func TestMarkMessageSeenWithoutRedis(t *testing.T) {
	repo := &ProposalRepository{}

	// must not panic; the unique index remains the dedup of record
	repo.MarkMessageSeen(context.Background(), "abc@uni.edu")
	repo.MarkMessageSeen(context.Background(), "")
}
