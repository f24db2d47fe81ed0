package postgres

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestWithoutTx(t *testing.T) {
	type key struct{}
	c := &Client{}
	tx := &sqlx.Tx{}

	base := context.WithValue(context.Background(), key{}, "req-1")
	assert.False(t, InTx(base))
	assert.Equal(t, base, WithoutTx(base))

	bound := ContextWithTx(base, tx)
	assert.True(t, InTx(bound))
	assert.Same(t, tx, c.TxFromContext(bound))

	detached := WithoutTx(bound)
	assert.False(t, InTx(detached))
	assert.Nil(t, c.TxFromContext(detached))
	assert.Equal(t, "req-1", detached.Value(key{}))

	// rebinding after a detach is honoured
	assert.True(t, InTx(ContextWithTx(detached, tx)))
}
