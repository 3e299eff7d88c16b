package service

import (
	"context"
	"testing"

	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/internal/store"
	"github.com/MKhiriev/go-drive-pool/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vfsFixture struct {
	mem     *memStore
	entries *memEntries
	vfs     VFSService
	account models.Account
	userID  int64
}

func newVFSFixture(t *testing.T) *vfsFixture {
	t.Helper()

	mem := newMemStore()
	entries := &memEntries{memStore: mem}
	return &vfsFixture{
		mem:     mem,
		entries: entries,
		vfs:     NewVFSService(entries, logger.Nop()),
		account: mem.addAccount(1, 10_000, 0),
		userID:  1,
	}
}

func (f *vfsFixture) folder(t *testing.T, name string, parent *models.Entry) models.Entry {
	t.Helper()

	var parentID *int64
	if parent != nil {
		parentID = &parent.ID
	}
	folder, err := f.vfs.CreateFolder(context.Background(), f.userID, name, parentID, f.account.ID)
	require.NoError(t, err)
	return folder
}

func (f *vfsFixture) file(t *testing.T, name string, size int64, parent *models.Entry) models.Entry {
	t.Helper()

	var parentID *int64
	if parent != nil {
		parentID = &parent.ID
	}
	file, err := f.vfs.CreateEntry(context.Background(), f.userID, models.NewEntry{
		ParentID:  parentID,
		AccountID: f.account.ID,
		Name:      name,
		MimeType:  "text/plain",
		Size:      size,
		RemoteID:  "remote-" + name,
	})
	require.NoError(t, err)
	return file
}

// ─────────────────────────────────────────────
// Create
// ─────────────────────────────────────────────

func TestVFS_CreateComputesPaths(t *testing.T) {
	f := newVFSFixture(t)

	docs := f.folder(t, "docs", nil)
	nested := f.folder(t, "2026", &docs)
	file := f.file(t, "report.pdf", 10, &nested)

	assert.Equal(t, "/docs", docs.Path)
	assert.Nil(t, docs.ParentID)
	assert.Nil(t, docs.RemoteID, "folders have no remote object")
	assert.True(t, docs.IsFolder)
	assert.Zero(t, docs.Size)

	assert.Equal(t, "/docs/2026", nested.Path)
	assert.Equal(t, "/docs/2026/report.pdf", file.Path)
	require.NotNil(t, file.RemoteID)
	assert.Equal(t, "remote-report.pdf", *file.RemoteID)
}

func TestVFS_CreateUnderFileFails(t *testing.T) {
	f := newVFSFixture(t)
	file := f.file(t, "a.txt", 1, nil)

	_, err := f.vfs.CreateFolder(context.Background(), f.userID, "sub", &file.ID, f.account.ID)

	assert.ErrorIs(t, err, ErrNotAFolder)
}

func TestVFS_CreateUnderForeignParentFails(t *testing.T) {
	f := newVFSFixture(t)
	docs := f.folder(t, "docs", nil)

	_, err := f.vfs.CreateFolder(context.Background(), 2, "sub", &docs.ID, f.account.ID)

	assert.ErrorIs(t, err, store.ErrEntryNotFound)
}

func TestVFS_DuplicatePathRejected(t *testing.T) {
	f := newVFSFixture(t)
	f.folder(t, "docs", nil)

	_, err := f.vfs.CreateFolder(context.Background(), f.userID, "docs", nil, f.account.ID)

	assert.ErrorIs(t, err, store.ErrEntryAlreadyExists)
}

// ─────────────────────────────────────────────
// List
// ─────────────────────────────────────────────

func TestVFS_ListJoinedChildExactlyOnce(t *testing.T) {
	f := newVFSFixture(t)
	parent := f.folder(t, "a", nil)
	child := f.file(t, "b.txt", 5, &parent)

	listing, err := f.vfs.List(context.Background(), f.userID, parent.Path)
	require.NoError(t, err)

	count := 0
	for _, e := range listing {
		if e.ID == child.ID {
			count++
			assert.Equal(t, JoinPath(parent.Path, "b.txt"), e.Path)
		}
	}
	assert.Equal(t, 1, count)
}

func TestVFS_ListOrdersFoldersFirstThenName(t *testing.T) {
	f := newVFSFixture(t)
	f.file(t, "b.txt", 1, nil)
	f.folder(t, "zeta", nil)
	f.file(t, "a.txt", 1, nil)
	f.folder(t, "alpha", nil)

	listing, err := f.vfs.List(context.Background(), f.userID, "")
	require.NoError(t, err)

	var names []string
	for _, e := range listing {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"alpha", "zeta", "a.txt", "b.txt"}, names)
}

func TestVFS_ListIsNotRecursive(t *testing.T) {
	f := newVFSFixture(t)
	a := f.folder(t, "a", nil)
	f.file(t, "deep.txt", 1, &a)

	listing, err := f.vfs.List(context.Background(), f.userID, "/")
	require.NoError(t, err)

	require.Len(t, listing, 1)
	assert.Equal(t, "a", listing[0].Name)
}

func TestVFS_ListMissingFolderIsEmpty(t *testing.T) {
	f := newVFSFixture(t)

	listing, err := f.vfs.List(context.Background(), f.userID, "/does-not-exist")

	require.NoError(t, err)
	assert.NotNil(t, listing)
	assert.Empty(t, listing)
}

func TestVFS_ListFilePathIsEmpty(t *testing.T) {
	f := newVFSFixture(t)
	f.file(t, "a.txt", 1, nil)

	listing, err := f.vfs.List(context.Background(), f.userID, "/a.txt")

	require.NoError(t, err)
	assert.Empty(t, listing)
}

func TestVFS_ListNormalizesPath(t *testing.T) {
	f := newVFSFixture(t)
	a := f.folder(t, "a", nil)
	f.file(t, "x.txt", 1, &a)

	listing, err := f.vfs.List(context.Background(), f.userID, " a/ ")

	require.NoError(t, err)
	assert.Len(t, listing, 1)
}

// ─────────────────────────────────────────────
// Resolve
// ─────────────────────────────────────────────

func TestVFS_ResolveFolder(t *testing.T) {
	f := newVFSFixture(t)
	a := f.folder(t, "a", nil)
	f.file(t, "x.txt", 1, nil)
	ctx := context.Background()

	root, err := f.vfs.ResolveFolder(ctx, f.userID, "/")
	require.NoError(t, err)
	assert.Nil(t, root)

	got, err := f.vfs.ResolveFolder(ctx, f.userID, "a/")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = f.vfs.ResolveFolder(ctx, f.userID, "/x.txt")
	assert.ErrorIs(t, err, ErrNotAFolder)

	_, err = f.vfs.ResolveFolder(ctx, f.userID, "/missing")
	assert.ErrorIs(t, err, store.ErrEntryNotFound)
}

// ─────────────────────────────────────────────
// Delete
// ─────────────────────────────────────────────

func TestVFS_DeleteCascades(t *testing.T) {
	f := newVFSFixture(t)
	ctx := context.Background()

	a := f.folder(t, "a", nil)
	f.file(t, "b.txt", 10, &a)
	c := f.folder(t, "c", &a)
	d := f.file(t, "d.txt", 20, &c)
	keep := f.file(t, "keep.txt", 5, nil)

	require.NoError(t, f.vfs.DeleteEntry(ctx, f.userID, a.ID))

	_, err := f.vfs.Get(ctx, f.userID, a.ID)
	assert.ErrorIs(t, err, store.ErrEntryNotFound)
	_, err = f.vfs.Get(ctx, f.userID, d.ID)
	assert.ErrorIs(t, err, store.ErrEntryNotFound)

	listing, err := f.vfs.List(ctx, f.userID, "/a")
	require.NoError(t, err)
	assert.Empty(t, listing)

	_, err = f.vfs.Get(ctx, f.userID, keep.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, f.mem.entryCount(f.userID))
}

func TestVFS_SubtreeListsDescendantsBeforeAncestors(t *testing.T) {
	f := newVFSFixture(t)
	a := f.folder(t, "a", nil)
	b := f.file(t, "b.txt", 10, &a)
	c := f.folder(t, "c", &a)
	d := f.file(t, "d.txt", 20, &c)

	entries, err := f.vfs.Subtree(context.Background(), f.userID, a.ID)
	require.NoError(t, err)

	position := make(map[int64]int)
	for i, e := range entries {
		position[e.ID] = i
	}
	require.Len(t, entries, 4)
	assert.Less(t, position[d.ID], position[c.ID])
	assert.Less(t, position[c.ID], position[a.ID])
	assert.Less(t, position[b.ID], position[a.ID])
	assert.Equal(t, a.ID, entries[len(entries)-1].ID)
}

func TestVFS_RemoveReleasesLedgerPerAccount(t *testing.T) {
	f := newVFSFixture(t)
	other := f.mem.addAccount(f.userID, 10_000, 0)
	ctx := context.Background()

	a := f.folder(t, "a", nil)
	f.file(t, "one.txt", 30, &a)
	f.file(t, "two.txt", 70, &a)
	otherFile, err := f.vfs.CreateEntry(ctx, f.userID, models.NewEntry{
		ParentID: &a.ID, AccountID: other.ID, Name: "three.txt", Size: 40, RemoteID: "r3",
	})
	require.NoError(t, err)
	require.NoError(t, (&memAccounts{memStore: f.mem}).Increment(ctx, f.account.ID, 100))
	require.NoError(t, (&memAccounts{memStore: f.mem}).Increment(ctx, other.ID, otherFile.Size))

	require.NoError(t, f.vfs.DeleteEntry(ctx, f.userID, a.ID))

	assert.Zero(t, f.mem.account(f.account.ID).UsedStorage)
	assert.Zero(t, f.mem.account(other.ID).UsedStorage)
}

func TestVFS_DeleteTwiceReleasesOnce(t *testing.T) {
	f := newVFSFixture(t)
	ctx := context.Background()

	one := f.file(t, "one.txt", 100, nil)
	f.file(t, "two.txt", 300, nil)
	require.NoError(t, (&memAccounts{memStore: f.mem}).Increment(ctx, f.account.ID, 400))

	require.NoError(t, f.vfs.DeleteEntry(ctx, f.userID, one.ID))
	err := f.vfs.DeleteEntry(ctx, f.userID, one.ID)

	assert.ErrorIs(t, err, store.ErrEntryNotFound)
	assert.Equal(t, int64(300), f.mem.account(f.account.ID).UsedStorage)
}

func TestVFS_DeleteMissingEntry(t *testing.T) {
	f := newVFSFixture(t)

	err := f.vfs.DeleteEntry(context.Background(), f.userID, 999)

	assert.ErrorIs(t, err, store.ErrEntryNotFound)
}
