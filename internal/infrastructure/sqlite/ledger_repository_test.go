package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provlab/traceline/internal/domain/provenance"
	"github.com/provlab/traceline/internal/signature"
)

func newTestRepo(t *testing.T) *LedgerRepository {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLedgerRepository(db)
}

func sigFor(label string) signature.Signature {
	return signature.Sum([]byte(label))
}

// populatedLedger builds a ledger with two nodes, two items, and a small
// step chain including a cross-node approval.
func populatedLedger(t *testing.T) *provenance.Ledger {
	t.Helper()
	l := provenance.New()

	n1, err := l.AddNode("alice", sigFor("n1"))
	require.NoError(t, err)
	n2, err := l.AddNode("bob", sigFor("n2"))
	require.NoError(t, err)
	require.NoError(t, l.SetOperator("alice", n1, "carol", true))

	i1, err := l.AddItem("alice", n1, sigFor("i1"))
	require.NoError(t, err)
	i2, err := l.AddItem("bob", n2, sigFor("i2"))
	require.NoError(t, err)

	s1, err := l.AddStep("alice", n1, i1, nil, sigFor("s1"))
	require.NoError(t, err)
	require.NoError(t, l.SetApproval("alice", s1, n2, true))
	sb1, err := l.AddStep("bob", n2, i2, nil, sigFor("b1"))
	require.NoError(t, err)
	_, err = l.AddStep("bob", n2, i2, []provenance.StepID{sb1, s1}, sigFor("b2"))
	require.NoError(t, err)

	return l
}

func TestLedgerRepository_ReplaceAndLoad(t *testing.T) {
	repo := newTestRepo(t)
	snap := populatedLedger(t).Snapshot()

	require.NoError(t, repo.Replace(snap))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	restored, err := provenance.FromSnapshot(loaded)
	require.NoError(t, err)
	assert.Equal(t, snap, restored.Snapshot())
}

func TestLedgerRepository_LoadEmptyDatabase(t *testing.T) {
	repo := newTestRepo(t)

	snap, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.Steps)
	assert.Zero(t, snap.NextNode)
}

func TestLedgerRepository_ReplaceOverwritesPreviousState(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Replace(populatedLedger(t).Snapshot()))

	small := provenance.New()
	_, err := small.AddNode("dan", sigFor("solo"))
	require.NoError(t, err)
	require.NoError(t, repo.Replace(small.Snapshot()))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Nodes, 1)
	assert.Empty(t, loaded.Items)
	assert.Empty(t, loaded.Steps)
	assert.Equal(t, provenance.NodeID(2), loaded.NextNode)
}

func TestLedgerRepository_IncrementalUpserts(t *testing.T) {
	repo := newTestRepo(t)
	l := populatedLedger(t)
	require.NoError(t, repo.Replace(l.Snapshot()))

	// Mutate one node row and one item row in place.
	require.NoError(t, l.SetOperator("alice", 1, "dave", true))
	snap := l.Snapshot()
	require.NoError(t, repo.UpsertNode(snap.Nodes[0]))
	require.NoError(t, repo.UpsertItem(snap.Items[0]))
	require.NoError(t, repo.SetCounters(snap.NextNode, snap.NextItem, snap.NextStep))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestLedgerRepository_Deletes(t *testing.T) {
	repo := newTestRepo(t)
	l := provenance.New()
	n1, err := l.AddNode("alice", sigFor("n1"))
	require.NoError(t, err)
	i1, err := l.AddItem("alice", n1, sigFor("i1"))
	require.NoError(t, err)
	require.NoError(t, repo.Replace(l.Snapshot()))

	require.NoError(t, repo.DeleteItem(i1))
	require.NoError(t, repo.DeleteNode(n1))
	// Absent rows delete cleanly.
	require.NoError(t, repo.DeleteStep(99))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Nodes)
	assert.Empty(t, loaded.Items)
}

func TestLedgerRepository_CountersSurviveRecordDeletion(t *testing.T) {
	repo := newTestRepo(t)
	l := provenance.New()
	n1, err := l.AddNode("alice", sigFor("n1"))
	require.NoError(t, err)
	require.NoError(t, l.RemoveNode("alice", n1))
	require.NoError(t, repo.Replace(l.Snapshot()))

	loaded, err := repo.Load()
	require.NoError(t, err)
	restored, err := provenance.FromSnapshot(loaded)
	require.NoError(t, err)

	n2, err := restored.AddNode("bob", sigFor("n2"))
	require.NoError(t, err)
	assert.Greater(t, n2, n1, "deleted ids stay burned across persistence")
}

func TestNewDB_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "ledger.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	snap := populatedLedger(t).Snapshot()
	require.NoError(t, NewLedgerRepository(db).Replace(snap))
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	loaded, err := NewLedgerRepository(db).Load()
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestNewDB_SetsSchemaVersion(t *testing.T) {
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}
