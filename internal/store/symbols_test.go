package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

func spawnSymbol() Symbol {
	s := Symbol{
		SourceType: SourceAPISymbol, Ecosystem: "rust", Package: "tokio", Version: "1.40.0",
		Kind: "function", Name: "spawn", Signature: "pub fn spawn<F>(future: F) -> JoinHandle<F::Output>",
		DocComment: "Spawns a new asynchronous task.", FilePath: "src/task/spawn.rs", LineStart: 160, LineEnd: 190,
	}
	s.ID = s.DeriveID()
	return s
}

func TestSymbol_DeriveIDAndEmbedText(t *testing.T) {
	s := spawnSymbol()

	assert.Equal(t, "rust:tokio@1.40.0:src/task/spawn.rs:function:spawn:160", s.ID)
	assert.Equal(t, "spawn\npub fn spawn<F>(future: F) -> JoinHandle<F::Output>\nSpawns a new asynchronous task.", s.EmbedText())
}

func TestSymbol_Validate(t *testing.T) {
	assert.NoError(t, spawnSymbol().Validate())

	bad := spawnSymbol()
	bad.SourceType = "readme"
	assert.Equal(t, zerrors.ErrCodeInvalidInput, zerrors.GetCode(bad.Validate()))

	bad = spawnSymbol()
	bad.Name = " "
	assert.Error(t, bad.Validate())
}

func TestSymbolStore_UpsertAndGet(t *testing.T) {
	// Given: a store with two symbols
	ctx := context.Background()
	st, err := OpenSymbolStore(filepath.Join(t.TempDir(), SymbolsFile))
	require.NoError(t, err)
	defer st.Close()

	a := spawnSymbol()
	b := spawnSymbol()
	b.Name, b.LineStart = "spawn_blocking", 210
	b.ID = b.DeriveID()
	require.NoError(t, st.Upsert(ctx, []Symbol{a, b}))

	// When: loading in a different order with an unknown id
	got, err := st.Get(ctx, []string{b.ID, "missing", a.ID})

	// Then: known ids come back in request order
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b, got[0])
	assert.Equal(t, a, got[1])
}

func TestSymbolStore_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	st, err := OpenSymbolStore("")
	require.NoError(t, err)
	defer st.Close()

	s := spawnSymbol()
	require.NoError(t, st.Upsert(ctx, []Symbol{s}))
	s.DocComment = "updated"
	require.NoError(t, st.Upsert(ctx, []Symbol{s}))

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := st.Get(ctx, []string{s.ID})
	require.NoError(t, err)
	assert.Equal(t, "updated", got[0].DocComment)

	ids, err := st.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{s.ID}, ids)
}

func TestSymbolStore_GetEmpty(t *testing.T) {
	st, err := OpenSymbolStore("")
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Get(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
}
